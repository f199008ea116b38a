package exchange

// Credentials are the API credentials for an exchange account
type Credentials struct {
	APIKey    string
	APISecret string
}

// Empty returns true if no credentials are set
func (c Credentials) Empty() bool {
	return c.APIKey == "" || c.APISecret == ""
}
