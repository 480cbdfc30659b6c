package server

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// MaxUploadBytes bounds multipart uploads. Zero uses fiber's default.
	MaxUploadBytes int
}
