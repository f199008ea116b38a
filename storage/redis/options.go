package redis

type Option func(s *Storage)

// WithKeyPrefix sets the namespace for the metadata keys
func WithKeyPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}
