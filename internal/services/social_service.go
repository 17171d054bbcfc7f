package services

import (
	"fmt"

	"devstore/internal/repos"
)

// SocialVerification is the two-platform follow gate state for one user.
// Both must be true before a free claim proceeds.
type SocialVerification struct {
	TikTok    bool `json:"tiktok"`
	Instagram bool `json:"instagram"`
}

func (v SocialVerification) AllVerified() bool { return v.TikTok && v.Instagram }

// SocialService records follow clicks server-side. A click is still
// self-asserted, but the claim endpoint re-checks the records so the gate
// cannot be skipped by posting straight to it.
type SocialService struct {
	Social       *repos.SocialRepo
	TikTokURL    string
	InstagramURL string
}

func NewSocialService(social *repos.SocialRepo, tiktokURL, instagramURL string) *SocialService {
	return &SocialService{Social: social, TikTokURL: tiktokURL, InstagramURL: instagramURL}
}

// Follow marks a platform as followed for the user and returns the link to
// open.
func (s *SocialService) Follow(userID, platform string) (string, error) {
	var link string
	switch platform {
	case "tiktok":
		link = s.TikTokURL
	case "instagram":
		link = s.InstagramURL
	default:
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	if err := s.Social.RecordFollow(userID, platform); err != nil {
		return "", err
	}
	return link, nil
}

func (s *SocialService) Status(userID string) (SocialVerification, error) {
	followed, err := s.Social.Followed(userID)
	if err != nil {
		return SocialVerification{}, err
	}
	return SocialVerification{TikTok: followed["tiktok"], Instagram: followed["instagram"]}, nil
}
