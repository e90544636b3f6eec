// internal/domain/principal.go
package domain

// Principal identifies a user of the payment core. Principals are not owned
// here; the ID and display name are supplied by callers on every operation.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
