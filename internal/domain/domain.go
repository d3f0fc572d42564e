package domain

import "github.com/yungbote/contentstream-backend/internal/domain/content"

type ContentType = content.ContentType
type TypeRegistry = content.TypeRegistry

type ContentItem = content.ContentItem
type ContentIdentity = content.ContentIdentity
type ContentIDCounter = content.ContentIDCounter
type UserContentMembership = content.UserContentMembership
type Stats = content.Stats

const (
	TypeQuiz    = content.TypeQuiz
	TypeQuizSet = content.TypeQuizSet
	TypeQuote   = content.TypeQuote
	TypeJoke    = content.TypeJoke
	TypePun     = content.TypePun
	TypeTrivia  = content.TypeTrivia
)

var NewTypeRegistry = content.NewTypeRegistry
