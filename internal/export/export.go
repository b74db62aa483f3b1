package export

import (
	"context"
	"fmt"
	"time"

	"shim/internal/logging"
	"shim/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bookingSheet  = "Peminjaman"
	scheduleSheet = "Jadwal"
	dateLayout    = "02.01.2006"
)

// Source provides the data a report is built from.
type Source interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetItems(ctx context.Context, bookableOnly bool) ([]*models.Item, error)
}

// Exporter renders bookings over a period into an XLSX workbook.
type Exporter struct {
	source Source
	logger *zerolog.Logger
}

func NewExporter(source Source, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Exporter{source: source, logger: logger}
}

// ExportBookings builds a workbook with every booking intersecting [from, to]
// and a per-item daily schedule of active bookings.
func (e *Exporter) ExportBookings(ctx context.Context, from, to time.Time) ([]byte, error) {
	bookings, err := e.source.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %w", err)
	}
	items, err := e.source.GetItems(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("error getting items: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := writeBookingList(f, from, to, bookings); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	writeSchedule(f, from, to, items, bookings)

	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	e.logger.Info().
		Time("from", from).
		Time("to", to).
		Int("bookings", len(bookings)).
		Msg("Excel export created")
	return append([]byte(nil), buf.Bytes()...), nil
}

var bookingHeaders = []string{
	"ID", "Barang", "Peminjam", "Mulai", "Selesai", "Keperluan", "Status",
	"Disetujui", "Alasan Ditolak", "Dikembalikan", "Denda", "Kondisi Kembali",
}

func writeBookingList(f *excelize.File, from, to time.Time, bookings []*models.Booking) error {
	_ = f.SetCellValue(bookingSheet, "A1", fmt.Sprintf("Periode: %s - %s", from.Format(dateLayout), to.Format(dateLayout)))
	title, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(bookingSheet, "A1", lastCol+"1")
	_ = f.SetCellStyle(bookingSheet, "A1", "A1", title)

	header := make([]interface{}, len(bookingHeaders))
	for i, h := range bookingHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(bookingSheet, "A2", &header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(bookingSheet, "A2", lastCol+"2", headerStyle)

	for i, b := range bookings {
		row := []interface{}{
			b.ID,
			b.ItemName,
			b.RequesterName,
			b.StartAt.Format(dateLayout),
			b.EndAt.Format(dateLayout),
			b.Reason,
			b.Status.String(),
			formatTime(b.ApprovedAt),
			deref(b.DeclineReason),
			formatTime(b.ReturnedAt),
			"",
			deref(b.ReturnCondition),
		}
		if b.Fine != nil {
			row[10] = *b.Fine
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(bookingSheet, cell, &row); err != nil {
			return fmt.Errorf("error writing booking %d: %w", b.ID, err)
		}
	}

	_ = f.SetColWidth(bookingSheet, "A", "A", 8)
	_ = f.SetColWidth(bookingSheet, "B", lastCol, 18)
	return nil
}

// writeSchedule lays items out as rows and days as columns, marking the
// requester of every active booking covering that day.
func writeSchedule(f *excelize.File, from, to time.Time, items []*models.Item, bookings []*models.Booking) {
	_ = f.SetCellValue(scheduleSheet, "A1", "Barang")

	dayStart := func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()) }
	var days []time.Time
	for d := dayStart(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, d := range days {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(scheduleSheet, cell, d.Format("02.01"))
		_ = f.SetCellStyle(scheduleSheet, cell, cell, headerStyle)
	}

	byItem := make(map[int64][]*models.Booking)
	for _, b := range bookings {
		if b.Status.IsActive() {
			byItem[b.ItemID] = append(byItem[b.ItemID], b)
		}
	}

	pending, _ := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1}})
	approved, _ := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1}})
	for r, item := range items {
		row := r + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(scheduleSheet, cell, fmt.Sprintf("%s (%s)", item.Name, item.Status.Label(models.LangID)))

		for c, d := range days {
			next := d.AddDate(0, 0, 1)
			for _, b := range byItem[item.ID] {
				if !models.Overlaps(b.StartAt, b.EndAt, d, next.Add(-time.Millisecond)) {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+2, row)
				_ = f.SetCellValue(scheduleSheet, cell, b.RequesterName)
				style := pending
				if b.Status == models.StatusApproved {
					style = approved
				}
				_ = f.SetCellStyle(scheduleSheet, cell, cell, style)
				break
			}
		}
	}

	_ = f.SetColWidth(scheduleSheet, "A", "A", 25)
	if len(days) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(days) + 1)
		_ = f.SetColWidth(scheduleSheet, "B", lastCol, 12)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
