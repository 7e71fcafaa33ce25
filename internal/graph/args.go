package graph

import (
	"github.com/google/uuid"

	apperr "github.com/hanpama/membergraph/internal/apperr"
	store "github.com/hanpama/membergraph/internal/store"
)

// Arguments arrive coerced by the executor: UUIDs as the client sent them,
// enums as strings and input objects as maps.

func uuidArg(args map[string]any, name string) (uuid.UUID, error) {
	raw, _ := args[name].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidArgument("argument %q is not a valid UUID: %q", name, raw)
	}
	return id, nil
}

func dtoArg(args map[string]any) map[string]any {
	dto, _ := args["dto"].(map[string]any)
	return dto
}

// columns copies the present keys of dto into a column map.
func columns(dto map[string]any, names map[string]string) map[string]any {
	out := make(map[string]any, len(dto))
	for field, column := range names {
		if v, ok := dto[field]; ok && v != nil {
			out[column] = v
		}
	}
	return out
}

var (
	userColumns    = map[string]string{"name": "name", "balance": "balance"}
	postColumns    = map[string]string{"title": "title", "content": "content"}
	profileColumns = map[string]string{"isMale": "is_male", "yearOfBirth": "year_of_birth", "memberTypeId": "member_type_id"}
)

func newUser(dto map[string]any) *store.User {
	name, _ := dto["name"].(string)
	balance, _ := dto["balance"].(float64)
	return &store.User{Name: name, Balance: balance}
}

func newPost(dto map[string]any) (*store.Post, error) {
	authorID, err := uuidArg(dto, "authorId")
	if err != nil {
		return nil, err
	}
	title, _ := dto["title"].(string)
	content, _ := dto["content"].(string)
	return &store.Post{Title: title, Content: content, AuthorID: authorID}, nil
}

func newProfile(dto map[string]any) (*store.Profile, error) {
	userID, err := uuidArg(dto, "userId")
	if err != nil {
		return nil, err
	}
	isMale, _ := dto["isMale"].(bool)
	year, _ := dto["yearOfBirth"].(int)
	memberType, _ := dto["memberTypeId"].(string)
	return &store.Profile{
		IsMale:       isMale,
		YearOfBirth:  year,
		UserID:       userID,
		MemberTypeID: store.MemberTypeID(memberType),
	}, nil
}
