package auth

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// IdentityKind tells which authentication paths an identity has.
type IdentityKind string

const (
	KindNone       IdentityKind = ""
	KindCredential IdentityKind = "credential"
	KindOAuth      IdentityKind = "oauth"
	KindHybrid     IdentityKind = "hybrid"
)

// Identity is a creator account. PasswordHash and TokenVersion never leave
// the service; callers receive a PublicIdentity.
//
// ProviderLinks holds provider-issued subject ids and is written only by the
// OAuth flow. SocialLinks holds user-supplied handles and never takes part in
// sign-in.
type Identity struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       []byte
	ProviderLinks      map[string]string
	SocialLinks        map[string]string
	DisplayName        string
	AvatarURL          string
	ProfessionalInfo   ProfessionalInfo
	Stats              Stats
	IsAvailableForHire bool
	TokenVersion       int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ProfessionalInfo struct {
	Title         string   `json:"title"`
	Skills        []string `json:"skills"`
	Tools         []string `json:"tools"`
	Collaborators []string `json:"collaborators"`
}

type Stats struct {
	ProjectViews  int `json:"projectViews"`
	Appreciations int `json:"appreciations"`
	Followers     int `json:"followers"`
	Following     int `json:"following"`
}

// PasswordCredential is the password half of an identity.
type PasswordCredential struct {
	Digest []byte
}

// Credential returns the password credential, if the identity has one.
// Reading the hash any other way is a bug.
func (i *Identity) Credential() (PasswordCredential, bool) {
	if len(i.PasswordHash) == 0 {
		return PasswordCredential{}, false
	}
	return PasswordCredential{Digest: i.PasswordHash}, true
}

func (i *Identity) Kind() IdentityKind {
	_, hasPassword := i.Credential()
	hasLinks := len(i.ProviderLinks) > 0
	switch {
	case hasPassword && hasLinks:
		return KindHybrid
	case hasPassword:
		return KindCredential
	case hasLinks:
		return KindOAuth
	default:
		return KindNone
	}
}

// Validate enforces that every persisted identity can sign in somehow.
func (i *Identity) Validate() error {
	if i.Kind() == KindNone {
		return ErrNoAuthPath
	}
	return nil
}

// LinkedTo returns the subject id for provider, if linked.
func (i *Identity) LinkedTo(provider string) (string, bool) {
	subject, ok := i.ProviderLinks[provider]
	return subject, ok
}

// Clone returns a deep copy.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.PasswordHash = slices.Clone(i.PasswordHash)
	c.ProviderLinks = maps.Clone(i.ProviderLinks)
	c.SocialLinks = maps.Clone(i.SocialLinks)
	c.ProfessionalInfo.Skills = slices.Clone(i.ProfessionalInfo.Skills)
	c.ProfessionalInfo.Tools = slices.Clone(i.ProfessionalInfo.Tools)
	c.ProfessionalInfo.Collaborators = slices.Clone(i.ProfessionalInfo.Collaborators)
	return &c
}

// PublicIdentity is the sanitized view of an Identity returned to callers.
type PublicIdentity struct {
	ID                 uuid.UUID         `json:"id"`
	Email              string            `json:"email"`
	DisplayName        string            `json:"displayName"`
	AvatarURL          string            `json:"avatarUrl"`
	Providers          map[string]string `json:"providers"`
	SocialLinks        map[string]string `json:"socialLinks"`
	ProfessionalInfo   ProfessionalInfo  `json:"professionalInfo"`
	Stats              Stats             `json:"stats"`
	IsAvailableForHire bool              `json:"isAvailableForHire"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// Public strips secrets and fills nil collections so JSON renders [] and {}.
func (i *Identity) Public() *PublicIdentity {
	providers := nonNilMap(i.ProviderLinks)
	socials := nonNilMap(i.SocialLinks)
	info := i.ProfessionalInfo
	info.Skills = nonNil(info.Skills)
	info.Tools = nonNil(info.Tools)
	info.Collaborators = nonNil(info.Collaborators)

	return &PublicIdentity{
		ID:                 i.ID,
		Email:              i.Email,
		DisplayName:        i.DisplayName,
		AvatarURL:          i.AvatarURL,
		Providers:          providers,
		SocialLinks:        socials,
		ProfessionalInfo:   info,
		Stats:              i.Stats,
		IsAvailableForHire: i.IsAvailableForHire,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
