package server

// Config holds the configuration for the HTTP/WebSocket server.
type Config struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string

	// MaxUploadBytes caps the size of an uploaded clip, for both
	// multipart uploads and accumulated WebSocket recordings.
	MaxUploadBytes int64

	// AllowedOrigin is the value for Access-Control-Allow-Origin.
	// "*" allows all origins.
	AllowedOrigin string

	// ReadBufferSize is the WebSocket read buffer size.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	WriteBufferSize int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		MaxUploadBytes:  25 << 20, // 25 MiB, ~13 minutes of 16 kHz PCM16
		AllowedOrigin:   "*",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}
