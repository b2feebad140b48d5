// Package health contiene DTOs para el endpoint raíz.
package health

// RootResponse es la respuesta de GET /.
type RootResponse struct {
	Message string `json:"message"`
}
