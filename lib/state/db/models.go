package db

type RestartConfig struct {
	SessionID   string
	Tool        string
	Name        string
	Urls        string
	Browsers    string
	Resolutions string
	CreatedAt   int64
}

type Session struct {
	SessionID string
	Tool      string
	Name      string
	UrlCount  int64
	CreatedAt int64
}
