package publish

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/errors"
)

// Visibility of a published post
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Metadata is the post-level metadata handed off alongside the slides
type Metadata struct {
	Tags          []string   `json:"tags"`
	TaggedUsers   []string   `json:"tagged_users"`
	Location      string     `json:"location"`
	Visibility    Visibility `json:"visibility"`
	IsAIGenerated bool       `json:"is_ai_generated"`
}

// SubmitSlide is one finalized slide in publish order
type SubmitSlide struct {
	Image    []byte             `json:"-"`
	MIMEType string             `json:"mime_type"`
	Caption  string             `json:"caption"`
	AltText  string             `json:"alt_text"`
	Order    int                `json:"order"`
	Edits    composer.EditModel `json:"edits"`
}

// SubmitRequest is the single atomic unit handed to the external
// create-post collaborator
type SubmitRequest struct {
	UserID   string        `json:"user_id"`
	Caption  string        `json:"caption"`
	Slides   []SubmitSlide `json:"slides"`
	Metadata Metadata      `json:"metadata"`
}

// Submitter is the external create-post operation. It persists images and
// records remotely and returns a post identifier. From the composer's
// perspective it is atomic: success clears the draft, failure preserves all
// in-memory state for retry.
type Submitter interface {
	CreatePost(ctx context.Context, req *SubmitRequest) (string, error)
}

// Assembler accumulates post-level metadata and validates the slide set
// before handoff
type Assembler struct {
	meta Metadata
}

// NewAssembler returns an assembler with public visibility and no metadata
func NewAssembler() *Assembler {
	return &Assembler{meta: Metadata{Visibility: VisibilityPublic}}
}

// AddTag adds a tag unless the limit is reached. Adding a tag that is
// already present is a benign no-op, reported as added=false with no error.
func (a *Assembler) AddTag(tag string) (bool, *errors.APIError) {
	tag = normalizeTag(tag)
	if tag == "" {
		return false, nil
	}
	for _, t := range a.meta.Tags {
		if t == tag {
			return false, nil
		}
	}
	if len(a.meta.Tags) >= config.MaxTags {
		return false, errors.TagLimit("tags", config.MaxTags)
	}
	a.meta.Tags = append(a.meta.Tags, tag)
	return true, nil
}

// RemoveTag removes a tag if present
func (a *Assembler) RemoveTag(tag string) {
	tag = normalizeTag(tag)
	for i, t := range a.meta.Tags {
		if t == tag {
			a.meta.Tags = append(a.meta.Tags[:i], a.meta.Tags[i+1:]...)
			return
		}
	}
}

// AddTaggedUser tags a user unless the limit is reached. Duplicates are a
// benign no-op, same as AddTag.
func (a *Assembler) AddTaggedUser(username string) (bool, *errors.APIError) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return false, nil
	}
	for _, u := range a.meta.TaggedUsers {
		if u == username {
			return false, nil
		}
	}
	if len(a.meta.TaggedUsers) >= config.MaxTaggedUsers {
		return false, errors.TagLimit("tagged users", config.MaxTaggedUsers)
	}
	a.meta.TaggedUsers = append(a.meta.TaggedUsers, username)
	return true, nil
}

// RemoveTaggedUser untags a user if present
func (a *Assembler) RemoveTaggedUser(username string) {
	username = strings.ToLower(strings.TrimSpace(username))
	for i, u := range a.meta.TaggedUsers {
		if u == username {
			a.meta.TaggedUsers = append(a.meta.TaggedUsers[:i], a.meta.TaggedUsers[i+1:]...)
			return
		}
	}
}

// SetLocation sets the location string, enforcing the length limit
func (a *Assembler) SetLocation(location string) *errors.APIError {
	location = strings.TrimSpace(location)
	if utf8.RuneCountInString(location) > config.MaxLocationLength {
		return errors.ValidationError("location",
			"location is too long")
	}
	a.meta.Location = location
	return nil
}

// SetVisibility sets the post visibility
func (a *Assembler) SetVisibility(v Visibility) {
	a.meta.Visibility = v
}

// SetAIGenerated flags the post as AI-generated
func (a *Assembler) SetAIGenerated(v bool) {
	a.meta.IsAIGenerated = v
}

// Metadata returns the accumulated post-level metadata
func (a *Assembler) Metadata() Metadata {
	return a.meta
}

// Validate checks the slide set in a fixed order and returns the first
// unmet condition with its own distinct reason:
//  1. at least one slide exists
//  2. the first slide's caption is non-empty (it displays in list views)
//  3. every slide has non-empty alt text
func Validate(slides []*composer.Slide) *errors.APIError {
	if len(slides) == 0 {
		return errors.EmptyPost()
	}

	ordered := orderedCopy(slides)

	if strings.TrimSpace(ordered[0].Caption) == "" {
		return errors.MissingCaption()
	}

	missing := 0
	for _, s := range ordered {
		if strings.TrimSpace(s.AltText) == "" {
			missing++
		}
	}
	if missing > 0 {
		return errors.MissingAltText(missing)
	}

	return nil
}

// Assemble validates the slide set and builds the finalized, ordered
// submission request
func (a *Assembler) Assemble(userID, caption string, slides []*composer.Slide) (*SubmitRequest, *errors.APIError) {
	if apiErr := Validate(slides); apiErr != nil {
		return nil, apiErr
	}

	ordered := orderedCopy(slides)
	out := make([]SubmitSlide, 0, len(ordered))
	for _, s := range ordered {
		out = append(out, SubmitSlide{
			Image:    s.Image(),
			MIMEType: s.MIMEType,
			Caption:  s.Caption,
			AltText:  s.AltText,
			Order:    s.Order,
			Edits:    s.Edits.Clone(),
		})
	}

	return &SubmitRequest{
		UserID:   userID,
		Caption:  caption,
		Slides:   out,
		Metadata: a.meta,
	}, nil
}

// orderedCopy sorts by the Order field without disturbing the input slice
func orderedCopy(slides []*composer.Slide) []*composer.Slide {
	out := make([]*composer.Slide, len(slides))
	copy(out, slides)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
