package repos

import "github.com/jmoiron/sqlx"

type SocialRepo struct{ db *sqlx.DB }

func NewSocialRepo(db *sqlx.DB) *SocialRepo { return &SocialRepo{db: db} }

// RecordFollow marks a platform as followed for the user. Re-clicking is a
// no-op; the first timestamp is kept for audit.
func (r *SocialRepo) RecordFollow(userID, platform string) error {
	_, err := r.db.Exec(`
	  INSERT INTO social_follows(user_id, platform)
	  VALUES (?, ?)
	  ON CONFLICT(user_id, platform) DO NOTHING
	`, userID, platform)
	return err
}

func (r *SocialRepo) Followed(userID string) (map[string]bool, error) {
	var platforms []string
	if err := r.db.Select(&platforms, `
	  SELECT platform FROM social_follows WHERE user_id = ?
	`, userID); err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for _, p := range platforms {
		out[p] = true
	}
	return out, nil
}
