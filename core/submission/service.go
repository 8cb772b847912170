package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/user"
)

var (
	// errors
	ErrSlotNotFound    = core.NewMissingReference("slot")
	ErrInvalidSlotType = errors.New("invalid slot type")
	ErrEmptyFile       = errors.New("no file uploaded")
)

type (
	Repository interface {
		// UpsertSlot creates the slot of slot.Type or replaces its title, dates and activity.
		UpsertSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		// QuerySlots returns slots ordered by deadline, slots without deadline last.
		QuerySlots(ctx context.Context, filter *SlotFilter, exec ...core.DBExecutor) ([]Slot, error)
		GetSlotByID(ctx context.Context, id int64, exec ...core.DBExecutor) (Slot, error)
		GetSlotByType(ctx context.Context, t SlotType, exec ...core.DBExecutor) (Slot, error)
		// DeleteSlot deletes a slot along with its submissions.
		DeleteSlot(ctx context.Context, id int64, exec ...core.DBExecutor) error
		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		// QuerySubmissions returns submissions oldest first.
		QuerySubmissions(ctx context.Context, filter *SubmissionFilter, exec ...core.DBExecutor) ([]Submission, error)
	}

	// FileStorage stores uploaded documents.
	FileStorage interface {
		// Save stores content under name and returns the stored file's path.
		Save(ctx context.Context, name string, content io.Reader) (string, error)
		URL(path string) string
	}

	// UserQuerier lists the users a slot update is broadcast to.
	UserQuerier interface {
		Query(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error)
	}

	Service struct {
		repo     Repository
		files    FileStorage
		users    UserQuerier
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}

	// SlotUpdate is the outcome of SetDate.
	SlotUpdate struct {
		Slot    Slot   `json:"slot"`
		Message string `json:"message"`
		Warning string `json:"warning,omitempty"`
	}
)

func NewService(
	repo Repository,
	files FileStorage,
	users UserQuerier,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		users:    users,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

// SetDate sets the deadline (or review date) of a slot type, activating the slot, then notifies every team.
// Notification failures never undo the update.
func (svc *Service) SetDate(ctx context.Context, in SetDate) (SlotUpdate, error) {
	if !in.Type.IsValid() {
		return SlotUpdate{}, core.NewValidationError(ErrInvalidSlotType, core.FieldError{Field: "slot_type", Error: ErrInvalidSlotType.Error()})
	}
	if err := svc.validate.Struct(in); err != nil {
		return SlotUpdate{}, err
	}

	slot := Slot{
		Type:      in.Type,
		Title:     in.Type.Title(),
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	}
	upd := SlotUpdate{}
	if in.Type.IsReviewDate() {
		d := in.Date.UTC()
		slot.ReviewDate = null.TimeFrom(d.Truncate(24 * time.Hour))
		upd.Message = fmt.Sprintf("%s date sent and teams notified.", in.Type)
	} else {
		slot.Deadline = null.TimeFrom(in.Date.UTC())
		upd.Message = "Deadline sent and teams notified."
	}

	slot, err := svc.repo.UpsertSlot(ctx, slot)
	if err != nil {
		return SlotUpdate{}, err
	}
	upd.Slot = slot

	if err = svc.notifyTeams(ctx, slot, upd.Message); err != nil {
		svc.logger.Warn(fmt.Sprintf("notifying teams of %s update: %v", slot.Type, err), err)
		upd.Warning = "Email notifications failed."
	}
	return upd, nil
}

func (svc *Service) notifyTeams(ctx context.Context, slot Slot, message string) error {
	active := true
	teams, err := svc.users.Query(ctx, &user.QueryFilter{Roles: []string{user.RoleTeam}, IsActive: &active}, nil)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		return nil
	}
	bcc := make([]mail.Address, 0, len(teams))
	for _, usr := range teams {
		bcc = append(bcc, mail.Address{Name: usr.Name, Address: usr.Email})
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		Bcc:          bcc,
		Subject:      "EvalX Update: " + string(slot.Type),
		TemplateName: "deadline_update",
		TemplateData: map[string]interface{}{"Message": message, "Slot": slot},
	})
	return nil
}

// DeleteSlot deletes the slot of type t and its submissions.
func (svc *Service) DeleteSlot(ctx context.Context, t SlotType) (Slot, error) {
	slot, err := svc.repo.GetSlotByType(ctx, t)
	if err != nil {
		return Slot{}, err
	}
	if err = svc.repo.DeleteSlot(ctx, slot.ID); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

func (svc *Service) Slots(ctx context.Context) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx, nil)
}

func (svc *Service) ActiveSlots(ctx context.Context) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx, &SlotFilter{ActiveOnly: true})
}

// SlotsByType maps every existing slot by its type.
func (svc *Service) SlotsByType(ctx context.Context) (map[SlotType]Slot, error) {
	slots, err := svc.repo.QuerySlots(ctx, nil)
	if err != nil {
		return nil, err
	}
	byType := make(map[SlotType]Slot, len(slots))
	for _, s := range slots {
		byType[s.Type] = s
	}
	return byType, nil
}

// Upload stores a team's document for the slot of ID slotID and records the submission.
func (svc *Service) Upload(ctx context.Context, teamID string, slotID int64, filename string, content io.Reader) (Submission, error) {
	slot, err := svc.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return Submission{}, err
	}
	if content == nil || filename == "" {
		return Submission{}, core.NewValidationError(ErrEmptyFile, core.FieldError{Field: "doc_file", Error: ErrEmptyFile.Error()})
	}

	now := core.NowFunc()
	name := path.Join("submissions", teamID, fmt.Sprintf("%s_%d_%s", slot.Type, now.Unix(), filepath.Base(filename)))
	stored, err := svc.files.Save(ctx, name, content)
	if err != nil {
		return Submission{}, err
	}

	sub, err := svc.repo.CreateSubmission(ctx, Submission{
		TeamID:      teamID,
		SlotID:      slot.ID,
		SlotType:    slot.Type,
		FilePath:    stored,
		SubmittedAt: now,
		Status:      slot.StatusAt(now),
	})
	if err != nil {
		return Submission{}, err
	}
	sub.FileURL = svc.files.URL(sub.FilePath)
	return sub, nil
}

func (svc *Service) TeamSubmissions(ctx context.Context, teamID string) ([]Submission, error) {
	return svc.submissions(ctx, &SubmissionFilter{TeamID: teamID})
}

// SubmissionsMap maps team IDs to the file URL of their latest submission per slot type.
func (svc *Service) SubmissionsMap(ctx context.Context) (map[string]map[SlotType]string, error) {
	subs, err := svc.submissions(ctx, nil)
	if err != nil {
		return nil, err
	}
	m := make(map[string]map[SlotType]string)
	for _, sub := range subs {
		if m[sub.TeamID] == nil {
			m[sub.TeamID] = make(map[SlotType]string)
		}
		m[sub.TeamID][sub.SlotType] = sub.FileURL
	}
	return m, nil
}

func (svc *Service) submissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error) {
	subs, err := svc.repo.QuerySubmissions(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].FileURL = svc.files.URL(subs[i].FilePath)
	}
	return subs, nil
}
