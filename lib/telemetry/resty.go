package telemetry

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty wraps every request of the client in a span carrying
// request and response headers and bodies.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	}
}

func instrumentHeaders(out *[]attribute.KeyValue, prefix string, headers http.Header) {
	for header, values := range headers {
		if len(values) == 1 {
			*out = append(*out, attribute.KeyValue{
				Key:   attribute.Key(fmt.Sprintf("%s/header: %s", prefix, header)),
				Value: attribute.StringValue(values[0]),
			})
			continue
		}
		for i, v := range values {
			*out = append(*out, attribute.KeyValue{
				Key:   attribute.Key(fmt.Sprintf("%s/header: %s (%d)", prefix, header, i)),
				Value: attribute.StringValue(v),
			})
		}
	}
}

func instrumentRequestBody(span trace.Span, req *http.Request) {
	if req == nil || req.GetBody == nil {
		return
	}
	bodyReader, err := req.GetBody()
	if err != nil {
		span.SetAttributes(attribute.KeyValue{
			Key: "request/body",
			Value: attribute.StringValue(fmt.Sprintf(
				"failed to get request body: %s",
				err.Error(),
			)),
		})
		return
	}
	if bodyReader == nil {
		return
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		span.SetAttributes(attribute.KeyValue{
			Key: "request/body",
			Value: attribute.StringValue(fmt.Sprintf(
				"failed to read request body: %s",
				err.Error(),
			)),
		})
		return
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "request/body",
		Value: attribute.StringValue(string(body)),
	})
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	// setting request attributes here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)

	var attrs []attribute.KeyValue
	instrumentHeaders(&attrs, "request", res.Request.Header)
	instrumentHeaders(&attrs, "response", res.Header())
	span.SetAttributes(attrs...)

	instrumentRequestBody(span, res.Request.RawRequest)
	span.SetAttributes(attribute.KeyValue{
		Key:   "response/body",
		Value: attribute.StringValue(res.String()),
	})

	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	defer span.SetStatus(codes.Error, err.Error())
	defer span.RecordError(err)

	span.SetName(fmt.Sprintf("http %s", req.Method))
	var attrs []attribute.KeyValue
	instrumentHeaders(&attrs, "request", req.Header)
	span.SetAttributes(attrs...)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	instrumentRequestBody(span, req.RawRequest)
}
