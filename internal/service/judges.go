package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/models"
	"cssl-judging/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTelegramLinked     = errors.New("this telegram account is already linked to another judge")

	// ErrPasswordResetRequired blocks account linking until the temporary
	// password has been replaced.
	ErrPasswordResetRequired = errors.New("temporary password must be changed first")
)

const tempPasswordLength = 12

// JudgeService manages judge accounts: onboarding with a mailed temporary
// password, authentication and Telegram linking.
type JudgeService struct {
	repo   *repository.Repository
	mailer MailService
}

func NewJudgeService(repo *repository.Repository, mailer MailService) *JudgeService {
	return &JudgeService{repo: repo, mailer: mailer}
}

func GenerateTempPassword(length int) (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[num.Int64()]
	}
	return string(result), nil
}

// CreateJudge stores a judge with a temporary password and mails it. If the
// mail cannot be delivered the judge is removed again.
func (s *JudgeService) CreateJudge(ctx context.Context, name, email, expertise string) (*models.Judge, error) {
	tempPass, err := GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, err
	}

	judge := &models.Judge{
		Name:          name,
		Email:         email,
		Expertise:     expertise,
		TempPassword:  tempPass,
		ResetRequired: true,
	}
	if err := s.repo.CreateJudge(ctx, judge); err != nil {
		return nil, err
	}

	if err := s.mailer.SendTempPassword(email, tempPass); err != nil {
		if delErr := s.repo.DeleteJudge(ctx, judge.ID); delErr != nil {
			logging.Log.Errorf("JUDGES: failed to roll back judge %s: %v", judge.ID, delErr)
		}
		return nil, fmt.Errorf("failed to send password: %w", err)
	}

	logging.Log.Infof("JUDGES: created judge %s (%s)", judge.ID, email)
	return judge, nil
}

// ResetPassword issues and mails a fresh temporary password. If the mail
// cannot be delivered the previous password stays valid.
func (s *JudgeService) ResetPassword(ctx context.Context, judgeID uuid.UUID) error {
	judge, err := s.repo.GetJudgeByID(ctx, judgeID)
	if err != nil {
		return err
	}
	tempPass, err := GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return err
	}
	prevHash, prevReset := judge.PasswordHash, judge.ResetRequired
	judge.TempPassword = tempPass
	judge.ResetRequired = true
	if err := s.repo.UpdateJudge(ctx, judge); err != nil {
		return err
	}
	if err := s.mailer.SendTempPassword(judge.Email, tempPass); err != nil {
		judge.PasswordHash, judge.ResetRequired = prevHash, prevReset
		if restoreErr := s.repo.UpdateJudge(ctx, judge); restoreErr != nil {
			logging.Log.Errorf("JUDGES: failed to restore password of judge %s: %v", judge.ID, restoreErr)
		}
		return fmt.Errorf("failed to send password: %w", err)
	}
	return nil
}

func (s *JudgeService) Authenticate(ctx context.Context, email, password string) (*models.Judge, error) {
	judge, err := s.repo.GetJudgeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !judge.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return judge, nil
}

func (s *JudgeService) ChangePassword(ctx context.Context, judgeID uuid.UUID, oldPassword, newPassword string) (*models.Judge, error) {
	judge, err := s.repo.GetJudgeByID(ctx, judgeID)
	if err != nil {
		return nil, err
	}
	if !judge.CheckPassword(oldPassword) {
		return nil, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	judge.PasswordHash = string(hash)
	judge.ResetRequired = false
	if err := s.repo.UpdateJudge(ctx, judge); err != nil {
		return nil, err
	}
	return judge, nil
}

// LinkTelegram authenticates the judge and binds the chat to the account.
// Judges still on a temporary password are refused.
func (s *JudgeService) LinkTelegram(ctx context.Context, email, password string, telegramID int64) (*models.Judge, error) {
	judge, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if judge.ResetRequired {
		return nil, ErrPasswordResetRequired
	}

	existing, err := s.repo.GetJudgeByTelegramID(ctx, telegramID)
	switch {
	case err == nil && existing.ID != judge.ID:
		return nil, ErrTelegramLinked
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	judge.TelegramID = &telegramID
	if err := s.repo.UpdateJudge(ctx, judge); err != nil {
		return nil, err
	}
	return judge, nil
}

func (s *JudgeService) JudgeByTelegram(ctx context.Context, telegramID int64) (*models.Judge, error) {
	return s.repo.GetJudgeByTelegramID(ctx, telegramID)
}

func (s *JudgeService) Competitions(ctx context.Context, judgeID uuid.UUID) ([]models.Competition, error) {
	return s.repo.GetCompetitionsForJudge(ctx, judgeID)
}
