// Package catalogue holds the region descriptors the pipeline fetches from
// the SPED external table service.
package catalogue

// Region describes one state (UF) table hosted by the SPED service.
type Region struct {
	// Name is the human readable region name used in logs and reports
	Name string `yaml:"name" json:"name"`

	// PackageID is the SPED package (idPacote) that hosts the region table
	PackageID int `yaml:"packageId" json:"packageId"`

	// TableID is the SPED table (idTabela). Nil means the region has no
	// published table and is skipped.
	TableID *int `yaml:"tableId,omitempty" json:"tableId,omitempty"`
}

// Supported reports whether the region has a table to fetch
func (r Region) Supported() bool {
	return r.TableID != nil
}

func table(id int) *int {
	return &id
}

// Default returns the catalogue of all 27 UFs. A fresh slice is returned on
// every call so callers cannot mutate the shared definition.
func Default() []Region {
	return []Region{
		{Name: "Bahia", PackageID: 11, TableID: table(190)},
		{Name: "Paraiba", PackageID: 21, TableID: table(46)},
		{Name: "Alagoas", PackageID: 8, TableID: table(33)},
		{Name: "Goias", PackageID: 15, TableID: table(37)},
		{Name: "Minas Gerais", PackageID: 19, TableID: table(43)},
		{Name: "Pernambuco", PackageID: 22, TableID: table(212)},
		{Name: "Rondonia", PackageID: 29, TableID: table(53)},
		{Name: "Roraima", PackageID: 28},
		{Name: "Santa Catarina", PackageID: 30, TableID: table(54)},
		{Name: "Sao Paulo", PackageID: 31, TableID: table(247)},
		{Name: "Sergipe", PackageID: 32, TableID: table(56)},
		{Name: "Tocantins", PackageID: 33, TableID: table(59)},
		{Name: "Acre", PackageID: 7, TableID: table(727)},
		{Name: "Amapa", PackageID: 10, TableID: table(842)},
		{Name: "Amazonas", PackageID: 9, TableID: table(220)},
		{Name: "Ceara", PackageID: 12, TableID: table(36)},
		{Name: "Distrito Federal", PackageID: 13, TableID: table(838)},
		{Name: "Espirito Santo", PackageID: 14, TableID: table(171)},
		{Name: "Maranhao", PackageID: 16, TableID: table(122)},
		{Name: "Mato Grosso", PackageID: 17, TableID: table(131)},
		{Name: "Mato Grosso do Sul", PackageID: 18, TableID: table(42)},
		{Name: "Para", PackageID: 20, TableID: table(123)},
		{Name: "Parana", PackageID: 23, TableID: table(50)},
		{Name: "Piaui", PackageID: 24, TableID: table(127)},
		{Name: "Rio de Janeiro", PackageID: 25, TableID: table(52)},
		{Name: "Rio Grande do Norte", PackageID: 26, TableID: table(126)},
		{Name: "Rio Grande do Sul", PackageID: 27, TableID: table(173)},
	}
}
