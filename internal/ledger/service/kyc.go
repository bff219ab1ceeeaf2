package service

import (
	"context"
	"time"

	"vaultbank/internal/ledger/events"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	dErrors "vaultbank/pkg/domain-errors"
)

// SubmitKYC records a pending document submission for review.
func (s *Service) SubmitKYC(ctx context.Context, userID int64, documentType, documentRef string) (*models.KYCSubmission, error) {
	start := time.Now()
	var created *models.KYCSubmission

	err := func() error {
		if documentType == "" || documentRef == "" {
			return dErrors.New(dErrors.CodeValidation, "document_type and document_ref are required")
		}
		return s.store.RunInTx(ctx, func(tx ports.TxStore) error {
			if _, err := tx.UserByID(ctx, userID); err != nil {
				return translateNotFound(err, "user not found")
			}
			sub, err := tx.CreateKYCSubmission(ctx, &models.KYCSubmission{
				UserID:       userID,
				DocumentType: documentType,
				DocumentRef:  documentRef,
				Status:       models.KYCPending,
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create kyc submission")
			}
			created = sub
			return nil
		})
	}()
	s.observe("submit_kyc", start, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Name:         events.EventKYCSubmitted,
		UserID:       userID,
		SubmissionID: created.ID,
	})
	return created, nil
}

// ReviewKYC decides a pending submission. ReviewedAt is set exactly once, on
// the first transition out of pending; repeating the same decision after
// success still fails with the conflict, never a silent no-op.
func (s *Service) ReviewKYC(ctx context.Context, submissionID int64, decision models.KYCDecision, notes string) (*models.KYCSubmission, error) {
	start := time.Now()
	var reviewed *models.KYCSubmission

	err := func() error {
		if !decision.Valid() {
			return dErrors.New(dErrors.CodeValidation, "decision must be 'approve' or 'reject'")
		}
		return s.store.RunInTx(ctx, func(tx ports.TxStore) error {
			sub, err := tx.KYCSubmissionByID(ctx, submissionID)
			if err != nil {
				return translateNotFound(err, "kyc submission not found")
			}
			if sub.Status != models.KYCPending {
				return dErrors.Wrap(models.ErrAlreadyReviewed, dErrors.CodeConflict, "submission already reviewed")
			}

			now := time.Now()
			if decision == models.DecisionApprove {
				sub.Status = models.KYCApproved
			} else {
				sub.Status = models.KYCRejected
				if notes == "" {
					notes = "Rejected by admin"
				}
			}
			sub.Notes = notes
			sub.ReviewedAt = &now

			if err := tx.UpdateKYCSubmission(ctx, sub); err != nil {
				return translateNotFound(err, "kyc submission not found")
			}
			reviewed = sub
			return nil
		})
	}()
	s.observe("review_kyc", start, err)
	if err != nil {
		return nil, err
	}

	name := events.EventKYCApproved
	if reviewed.Status == models.KYCRejected {
		name = events.EventKYCRejected
	}
	s.publish(ctx, events.Event{
		Name:         name,
		UserID:       reviewed.UserID,
		SubmissionID: reviewed.ID,
	})
	return reviewed, nil
}

// KYCSubmissions lists submissions, optionally filtered by status.
func (s *Service) KYCSubmissions(ctx context.Context, status models.KYCStatus, limit, offset int) ([]*models.KYCSubmission, error) {
	subs, err := s.store.ListKYCSubmissions(ctx, status, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list kyc submissions")
	}
	return subs, nil
}

// KYCSubmission loads one submission.
func (s *Service) KYCSubmission(ctx context.Context, id int64) (*models.KYCSubmission, error) {
	sub, err := s.store.KYCSubmissionByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "kyc submission not found")
	}
	return sub, nil
}
