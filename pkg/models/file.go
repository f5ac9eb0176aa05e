package models

// Layout is the shape of a raw export, detected from its first row.
type Layout string

const (
	// Many accounts in one sheet, header in the first row.
	LayoutMultiAccount Layout = "multi-account"
	// One account per file, named only in the file name.
	LayoutSingleAccount Layout = "single-account"
)

// LoadedFile is one uploaded spreadsheet after normalization.
type LoadedFile struct {
	ID       string `json:"id"`
	Source   Source `json:"source"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath,omitempty"`
	Layout   Layout `json:"layout"`
	Account  string `json:"account,omitempty"`
	RowCount int    `json:"rowCount"`
	Dropped  int    `json:"dropped"`
	Rows     []Row  `json:"-"`
}
