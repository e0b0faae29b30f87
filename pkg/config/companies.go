package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
)

// companiesFile formato del archivo BSALE_COMPANIES_FILE:
//
//	empresas:
//	  - nombre: Tienda Centro
//	    token: abc123
type companiesFile struct {
	Empresas []entity.Company `yaml:"empresas"`
}

// LoadCompanies arma la lista de empresas desde un archivo YAML (si path no es vacío)
// o desde la variable BSALE_COMPANIES con formato "Nombre=token;Nombre2=token2".
// El orden se conserva: el índice de empresa de la importación se refiere a esta lista.
func LoadCompanies(path, inline string) ([]entity.Company, error) {
	var companies []entity.Company
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("leer archivo de empresas: %w", err)
		}
		var f companiesFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsear archivo de empresas %s: %w", path, err)
		}
		companies = f.Empresas
	case strings.TrimSpace(inline) != "":
		for _, part := range strings.Split(inline, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, token, ok := strings.Cut(part, "=")
			if !ok {
				return nil, fmt.Errorf("BSALE_COMPANIES: entrada %q sin '='", part)
			}
			companies = append(companies, entity.Company{Name: name, Token: token})
		}
	default:
		return nil, nil
	}

	seen := make(map[string]string, len(companies))
	for i, c := range companies {
		c.Name = strings.TrimSpace(c.Name)
		c.Token = strings.TrimSpace(c.Token)
		if c.Name == "" || c.Token == "" {
			return nil, fmt.Errorf("empresa %d: nombre y token son obligatorios", i)
		}
		if prev, ok := seen[c.Token]; ok {
			return nil, fmt.Errorf("empresas %q y %q comparten el mismo token", prev, c.Name)
		}
		seen[c.Token] = c.Name
		companies[i] = c
	}
	return companies, nil
}
