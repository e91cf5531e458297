package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes limita el body de escritura; los payloads de esta API son chicos.
const maxBodyBytes = 1 << 20

// ErrInvalidJSON se devuelve cuando el body no es un único objeto JSON válido.
var ErrInvalidJSON = errors.New("invalid JSON body")

// DecodeJSON decodifica el body en dst.
// Un body vacío o con datos extra después del objeto se rechaza.
func DecodeJSON(writer http.ResponseWriter, request *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrInvalidJSON
	}
	return nil
}
