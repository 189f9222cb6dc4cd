package services

import (
	"context"
	"io"

	"github.com/abrezinsky/f1bet/internal/errors"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/theme"
)

// ProfileView is a user's profile page
type ProfileView struct {
	User     *models.User
	History  []models.Prediction
	IsOwner  bool
	Empty    string
	Error    string
	Selected theme.Theme // owner's current theme, for the selector
}

// AvatarResult is the outcome of an avatar upload
type AvatarResult struct {
	ProfilePicture string
	Error          string
	Success        string
}

// ProfileService handles profile pages and the owner's preferences
type ProfileService struct {
	log     logger.Logger
	client  ProfileClient
	session Session
}

// NewProfileService creates a new ProfileService
func NewProfileService(log logger.Logger, client ProfileClient, session Session) *ProfileService {
	return &ProfileService{log: log, client: client, session: session}
}

// Load fetches a user and their prediction history
func (s *ProfileService) Load(ctx context.Context, userID string) ProfileView {
	snap := s.session.Snapshot()
	if snap.Token == "" {
		return ProfileView{Error: MsgLoginToViewProfile}
	}

	user, err := s.client.GetUser(ctx, userID)
	if err != nil {
		return s.failed(ctx, snap.Token, userID, err)
	}
	history, err := s.client.UserPredictions(ctx, userID)
	if err != nil {
		return s.failed(ctx, snap.Token, userID, err)
	}

	view := ProfileView{
		User:    user,
		History: history,
		IsOwner: snap.User != nil && snap.User.ID == userID,
	}
	if len(history) == 0 {
		view.Empty = MsgHistoryEmpty
	}
	if view.IsOwner {
		view.Selected = theme.Resolve(snap.User.Preferences.Theme)
	}
	return view
}

func (s *ProfileService) failed(ctx context.Context, token, userID string, err error) ProfileView {
	s.log.Warn("Failed to load profile", "user", userID, "error", err)
	switch errors.KindOf(err) {
	case errors.ErrForbidden:
		return ProfileView{Error: MsgProfileForbidden}
	case errors.ErrNotFound:
		return ProfileView{Error: MsgProfileNotFound}
	case errors.ErrUnauthorized:
		s.session.ExpireIfCurrent(ctx, token)
		return ProfileView{Error: MsgLoginToViewProfile}
	default:
		return ProfileView{Error: MsgProfileError}
	}
}

// UploadAvatar uploads a new profile picture and refreshes the session so
// every view shows it
func (s *ProfileService) UploadAvatar(ctx context.Context, filename string, image io.Reader) AvatarResult {
	token := s.session.Token()
	res, err := s.client.UploadProfilePicture(ctx, filename, image)
	if err != nil {
		s.log.Warn("Failed to upload profile picture", "error", err)
		if errors.Is(err, errors.ErrUnauthorized) {
			s.session.ExpireIfCurrent(ctx, token)
		}
		return AvatarResult{Error: errors.MessageOf(err, MsgAvatarFailed)}
	}

	if err := s.session.RefreshUser(ctx); err != nil {
		s.log.Warn("Failed to refresh user after avatar upload", "error", err)
	}

	msg := res.Message
	if msg == "" {
		msg = MsgAvatarUpdated
	}
	return AvatarResult{ProfilePicture: res.ProfilePicture, Success: msg}
}

// SetTheme saves the owner's theme preference immediately
func (s *ProfileService) SetTheme(ctx context.Context, themeID string) bool {
	if _, ok := theme.Lookup(themeID); !ok {
		s.log.Debug("Ignoring unknown theme", "theme", themeID)
		return false
	}
	return s.session.UpdatePreferences(ctx, models.Preferences{Theme: themeID})
}
