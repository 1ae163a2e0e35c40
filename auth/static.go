package auth

import (
	"context"
)

// StaticKey authenticates with a fixed API key and client id pair.
type StaticKey struct {
	headers map[string]string
}

func NewStaticKey(apiKey, clientID string) (*StaticKey, error) {
	if err := required("api key", apiKey); err != nil {
		return nil, err
	}
	if err := required("client id", clientID); err != nil {
		return nil, err
	}

	return &StaticKey{
		headers: map[string]string{
			"Authorization": "ApiKey " + apiKey,
			"X-ClientID":    clientID,
		},
	}, nil
}

func (s *StaticKey) Prepare(context.Context) error {
	return nil
}

func (s *StaticKey) Headers(context.Context) (map[string]string, error) {
	result := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		result[k] = v
	}
	return result, nil
}
