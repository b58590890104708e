package outlook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"github.com/skawahara/yotei/internal/core"

	"golang.org/x/oauth2"
)

func ptr[T any](v T) *T { return &v }

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

// tokenFromFile reads an OAuth token from a JSON file.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// graphErr wraps a Graph SDK failure, marking throttling and server
// errors as core.ErrUnavailable so callers can retry them.
func graphErr(op string, err error) error {
	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		code := odataErr.ResponseStatusCode
		if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
			return fmt.Errorf("%s: %w: %v", op, core.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
