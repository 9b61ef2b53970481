package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/domain"
)

// receiptCopyChunkSize bounds memory use while streaming uploads to disk
const receiptCopyChunkSize = 1024 * 1024

// allowedReceiptExtensions are the recognized receipt file extensions
var allowedReceiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// ReceiptUpload describes an incoming receipt file
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// ReceiptService stores receipt files on disk and links them to expenses
type ReceiptService struct {
	expenseRepo domain.ExpenseRepository
	dir         string
}

// NewReceiptService creates a ReceiptService storing files under dir
func NewReceiptService(expenseRepo domain.ExpenseRepository, dir string) *ReceiptService {
	return &ReceiptService{expenseRepo: expenseRepo, dir: dir}
}

// AttachReceipt validates and stores an uploaded receipt, then persists the
// generated relative name on the expense. Attaching to a soft-deleted expense
// is admin only. No audit record is written.
func (s *ReceiptService) AttachReceipt(actor domain.Actor, expenseID uuid.UUID, upload ReceiptUpload) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(expenseID)
	if err != nil {
		return nil, err
	}
	if expense.IsDeleted && !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	ct := strings.ToLower(upload.ContentType)
	if !strings.HasPrefix(ct, "image/") && ct != "application/pdf" {
		return nil, domain.ErrUnsupportedReceiptType
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedReceiptExtensions[ext] {
		// Unrecognized extension: fall back based on the declared content type
		if ct == "application/pdf" {
			ext = ".pdf"
		} else {
			ext = ".jpg"
		}
	}

	name := receiptName(expenseID, ext)
	if err := s.writeFile(name, upload.Reader); err != nil {
		return nil, err
	}

	updated, err := s.expenseRepo.SetReceiptPath(expenseID, name)
	if err != nil {
		return nil, err
	}

	log.Info().Str("expense_id", expenseID.String()).Str("receipt", name).Msg("Receipt attached")
	return updated, nil
}

func (s *ReceiptService) writeFile(name string, r io.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create receipts dir: %w", err)
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create receipt file: %w", err)
	}

	buf := make([]byte, receiptCopyChunkSize)
	if _, err := io.CopyBuffer(f, r, buf); err != nil {
		f.Close()
		return fmt.Errorf("write receipt file: %w", err)
	}
	return f.Close()
}

// receiptName combines the expense id, a UTC timestamp and a random token so
// repeated uploads never collide.
func receiptName(expenseID uuid.UUID, ext string) string {
	ts := time.Now().UTC().Format("20060102_150405")
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s_%s_%s%s", expenseID, ts, token, ext)
}
