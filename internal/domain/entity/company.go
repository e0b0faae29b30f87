package entity

// Company representa una empresa cuyas ventas se importan desde Bsale.
// Es inmutable: se carga al iniciar el proceso y nunca se modifica.
type Company struct {
	Name  string `yaml:"nombre"`
	Token string `yaml:"token"` // access_token de la API Bsale
}

// CompanyByToken busca el nombre de la empresa dueña de un token. Devuelve "" si no existe.
func CompanyByToken(companies []Company, token string) string {
	for _, c := range companies {
		if c.Token == token {
			return c.Name
		}
	}
	return ""
}
