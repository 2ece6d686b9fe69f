package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gradestats-server-go/models"
)

// Assembler produces the downloadable artifacts of one analysis
type Assembler struct {
	Charts ChartRenderer
}

// NewAssembler returns an Assembler drawing charts with go-chart.
func NewAssembler() *Assembler {
	return &Assembler{Charts: NewPNGCharts()}
}

// Workbook returns the XLSX export.
func (a *Assembler) Workbook(analysis *models.Analysis) ([]byte, error) {
	return EncodeWorkbook(PlanWorkbook(analysis))
}

// Document returns the PDF export.
func (a *Assembler) Document(analysis *models.Analysis) ([]byte, error) {
	return EncodeDocument(PlanDocument(analysis), a.Charts)
}

// Build produces both artifacts under a fresh id. If either export fails
// nothing is returned.
func (a *Assembler) Build(analysis *models.Analysis) (*models.Artifacts, error) {
	xlsx, err := a.Workbook(analysis)
	if err != nil {
		return nil, fmt.Errorf("building workbook: %w", err)
	}
	pdf, err := a.Document(analysis)
	if err != nil {
		return nil, fmt.Errorf("building document: %w", err)
	}
	return &models.Artifacts{
		ID:        uuid.NewString(),
		FileName:  analysis.FileName,
		Workbook:  xlsx,
		Document:  pdf,
		CreatedAt: time.Now().UTC(),
	}, nil
}
