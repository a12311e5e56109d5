package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// ReportHandler renders the loyalty program report as a spreadsheet:
// one sheet for the client roster, one for the ledger.
type ReportHandler struct {
	Store *storage.Storage
}

func (h ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/report.xlsx", h.report)
}

func (h ReportHandler) report(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.GetAllClients(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	txs, err := h.Store.ListTransactions(r.Context(), "")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data, err := buildReportXLSX(clients, txs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"loyalty_report_%s.xlsx\"", time.Now().Format("20060102_150405")))
	_, _ = w.Write(data)
}

func buildReportXLSX(clients []domain.Client, txs []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()

	clientSheet := "Clients"
	index, err := f.NewSheet(clientSheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	clientHeader := []string{"ID", "Name", "Phone", "Email", "Points", "Level", "Active", "Created At"}
	for c, v := range clientHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(clientSheet, cell, v)
	}
	for r, client := range clients {
		row := r + 2
		values := []any{
			client.ID,
			client.Name,
			client.Phone,
			client.Email,
			client.Points,
			string(client.Level),
			client.Active,
			client.CreatedAt.Format("2006-01-02"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(clientSheet, cell, v)
		}
	}
	_ = f.SetColWidth(clientSheet, "A", "A", 38)
	_ = f.SetColWidth(clientSheet, "B", "B", 28)
	_ = f.SetColWidth(clientSheet, "C", "D", 22)
	_ = f.SetColWidth(clientSheet, "E", "G", 10)
	_ = f.SetColWidth(clientSheet, "H", "H", 14)

	txSheet := "Transactions"
	if _, err := f.NewSheet(txSheet); err != nil {
		return nil, err
	}
	txHeader := []string{"ID", "Client ID", "Points", "Type", "Reason", "Timestamp"}
	for c, v := range txHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(txSheet, cell, v)
	}
	for r, tx := range txs {
		row := r + 2
		values := []any{
			tx.ID,
			tx.ClientID,
			tx.Points,
			string(tx.Type),
			tx.Reason,
			tx.Timestamp.Format("2006-01-02 15:04:05"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(txSheet, cell, v)
		}
	}
	_ = f.SetColWidth(txSheet, "A", "B", 38)
	_ = f.SetColWidth(txSheet, "C", "E", 12)
	_ = f.SetColWidth(txSheet, "F", "F", 20)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(clientSheet, "A1", "H1", style)
	_ = f.SetCellStyle(txSheet, "A1", "F1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
