package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/contentstream-backend/internal/data/repos/content"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type ContentItemRepo = content.ContentItemRepo
type ContentIdentityRepo = content.ContentIdentityRepo
type ContentIDCounterRepo = content.ContentIDCounterRepo
type UserContentMembershipRepo = content.UserContentMembershipRepo

type CandidateQuery = content.CandidateQuery
type Policy = content.Policy

const (
	PolicyRandom = content.PolicyRandom
	PolicyRecent = content.PolicyRecent
)

var ParsePolicy = content.ParsePolicy

// Set bundles every repo the engine needs.
type Set struct {
	Items       ContentItemRepo
	Identities  ContentIdentityRepo
	Counters    ContentIDCounterRepo
	Memberships UserContentMembershipRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Items:       content.NewContentItemRepo(db, log),
		Identities:  content.NewContentIdentityRepo(db, log),
		Counters:    content.NewContentIDCounterRepo(db, log),
		Memberships: content.NewUserContentMembershipRepo(db, log),
	}
}
