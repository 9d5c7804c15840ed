package repository

import (
	"context"
	"time"

	"github.com/coachhub/coach-platform/internal/domain"
)

const studentsCollection = "students"

// StudentRepository defines persistence access for student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.StudentRecord, error)
	Save(ctx context.Context, record *domain.StudentRecord) error
	ListByPersonal(ctx context.Context, personalID string) ([]domain.StudentRecord, error)
}

type studentRepository struct {
	docs DocumentRepository
}

// NewStudentRepository returns a document-store-backed implementation.
func NewStudentRepository(docs DocumentRepository) StudentRepository {
	return &studentRepository{docs: docs}
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.StudentRecord, error) {
	doc, err := r.docs.Get(ctx, studentsCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeStudent(doc), nil
}

func (r *studentRepository) Save(ctx context.Context, record *domain.StudentRecord) error {
	return r.docs.Set(ctx, studentsCollection, record.ID, encodeStudent(record))
}

func (r *studentRepository) ListByPersonal(ctx context.Context, personalID string) ([]domain.StudentRecord, error) {
	docs, err := r.docs.Query(ctx, studentsCollection, Filter{Field: "personal_id", Value: personalID})
	if err != nil {
		return nil, err
	}

	records := make([]domain.StudentRecord, 0, len(docs))
	for i := range docs {
		records = append(records, *decodeStudent(&docs[i]))
	}
	return records, nil
}

func encodeStudent(s *domain.StudentRecord) map[string]any {
	data := map[string]any{
		"name":       s.Name,
		"email":      s.Email,
		"status":     string(s.Status),
		"created_at": s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if s.PersonalID != nil {
		data["personal_id"] = *s.PersonalID
	} else {
		data["personal_id"] = nil
	}
	return data
}

func decodeStudent(doc *Document) *domain.StudentRecord {
	record := &domain.StudentRecord{
		ID:        doc.ID,
		Name:      stringField(doc.Data, "name"),
		Email:     stringField(doc.Data, "email"),
		Status:    domain.ProfileStatus(stringField(doc.Data, "status")),
		CreatedAt: timeField(doc.Data, "created_at"),
	}
	if v, ok := doc.Data["personal_id"].(string); ok && v != "" {
		record.PersonalID = &v
	}
	return record
}
