package authprovider

import (
	"encoding/json"
	"io"
)

// decodeJSONBody is a small helper shared by the token and discovery
// request paths.
func decodeJSONBody(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
