package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"utnode/internal/adapters/storage/document"
	"utnode/internal/application/orchestrators"
	"utnode/internal/domain/course"
	"utnode/internal/domain/game"
	"utnode/internal/domain/subscriber"
	"utnode/internal/domain/talk"
	"utnode/internal/domain/train"
	"utnode/internal/domain/user"
	"utnode/internal/domain/validation"
)

// entity is a stored type that normalizes and validates itself.
type entity[T any] interface {
	*T
	Normalize()
	Validate() error
}

// decodeEntity decodes, normalizes and validates a T from the form.
func decodeEntity[T any, PT entity[T]](fields []fieldSpec) func(*http.Request, T) (T, error) {
	return func(r *http.Request, _ T) (T, error) {
		var v T
		parseErr := decodeForm(r, &v, fields)
		var pv validation.Violations
		if parseErr != nil && !errors.As(parseErr, &pv) {
			return v, parseErr
		}
		PT(&v).Normalize()
		return v, validation.Merge(parseErr, PT(&v).Validate())
	}
}

var userFields = []fieldSpec{
	{name: "first", label: "First name", input: "text"},
	{name: "last", label: "Last name", input: "text"},
	{name: "email", label: "Email", input: "email"},
	{name: "zipCode", label: "Zip code", input: "number"},
	{name: "password", label: "Password", input: "password", secret: true},
}

func (s *Server) userResource() *resource[user.User] {
	return &resource[user.User]{
		name:   "users",
		label:  "User",
		store:  s.stores.Users,
		fields: userFields,
		title:  func(u user.User) string { return u.FullName() },
		values: func(u user.User) map[string]string {
			zip := ""
			if u.ZipCode != 0 {
				zip = strconv.Itoa(u.ZipCode)
			}
			return map[string]string{"first": u.FirstName, "last": u.LastName, "email": u.Email, "zipCode": zip}
		},
		decode: func(r *http.Request, existing user.User) (user.User, error) {
			var in user.Input
			parseErr := decodeForm(r, &in, userFields)
			var pv validation.Violations
			if parseErr != nil && !errors.As(parseErr, &pv) {
				return user.User{}, parseErr
			}
			u, err := orchestrators.ExecuteRegister(in, existing)
			return u, validation.Merge(parseErr, err)
		},
	}
}

var subscriberFields = []fieldSpec{
	{name: "name", label: "Name", input: "text"},
	{name: "email", label: "Email", input: "email"},
	{name: "zipCode", label: "Zip code", input: "number"},
}

func (s *Server) subscriberResource() *resource[subscriber.Subscriber] {
	return &resource[subscriber.Subscriber]{
		name:   "subscribers",
		label:  "Subscriber",
		store:  s.stores.Subscribers,
		fields: subscriberFields,
		title:  func(v subscriber.Subscriber) string { return v.Name },
		values: func(v subscriber.Subscriber) map[string]string {
			zip := ""
			if v.ZipCode != 0 {
				zip = strconv.Itoa(v.ZipCode)
			}
			return map[string]string{"name": v.Name, "email": v.Email, "zipCode": zip}
		},
		decode: decodeEntity[subscriber.Subscriber](subscriberFields),
		afterCreate: func(ctx context.Context, rec document.Record[subscriber.Subscriber]) {
			// Already logged; a failed welcome mail never fails the signup.
			_ = orchestrators.ExecuteWelcomeSubscriber(ctx, rec.Data, orchestrators.WelcomeDeps{Sender: s.mailer})
		},
	}
}

var courseFields = []fieldSpec{
	{name: "title", label: "Title", input: "text"},
	{name: "description", label: "Description", input: "textarea", markdown: true},
	{name: "maxStudents", label: "Max students", input: "number"},
	{name: "cost", label: "Cost", input: "number"},
}

func (s *Server) courseResource() *resource[course.Course] {
	return &resource[course.Course]{
		name:   "courses",
		label:  "Course",
		store:  s.stores.Courses,
		fields: courseFields,
		title:  func(v course.Course) string { return v.Title },
		values: func(v course.Course) map[string]string {
			return map[string]string{
				"title":       v.Title,
				"description": v.Description,
				"maxStudents": strconv.Itoa(v.MaxStudents),
				"cost":        ftoa(v.Cost),
			}
		},
		decode: decodeEntity[course.Course](courseFields),
	}
}

var talkFields = []fieldSpec{
	{name: "title", label: "Title", input: "text"},
	{name: "speaker", label: "Speaker", input: "text"},
	{name: "description", label: "Description", input: "textarea", markdown: true},
	{name: "duration", label: "Duration (minutes)", input: "number"},
}

func (s *Server) talkResource() *resource[talk.Talk] {
	return &resource[talk.Talk]{
		name:   "talks",
		label:  "Talk",
		store:  s.stores.Talks,
		fields: talkFields,
		title:  func(v talk.Talk) string { return v.Title },
		values: func(v talk.Talk) map[string]string {
			return map[string]string{
				"title":       v.Title,
				"speaker":     v.Speaker,
				"description": v.Description,
				"duration":    strconv.Itoa(v.Duration),
			}
		},
		decode: decodeEntity[talk.Talk](talkFields),
	}
}

var trainFields = []fieldSpec{
	{name: "name", label: "Name", input: "text"},
	{name: "origin", label: "Origin", input: "text"},
	{name: "destination", label: "Destination", input: "text"},
	{name: "price", label: "Price", input: "number"},
}

func (s *Server) trainResource() *resource[train.Train] {
	return &resource[train.Train]{
		name:   "trains",
		label:  "Train",
		store:  s.stores.Trains,
		fields: trainFields,
		title:  func(v train.Train) string { return v.Name },
		values: func(v train.Train) map[string]string {
			return map[string]string{
				"name":        v.Name,
				"origin":      v.Origin,
				"destination": v.Destination,
				"price":       ftoa(v.Price),
			}
		},
		decode: decodeEntity[train.Train](trainFields),
	}
}

var gameFields = []fieldSpec{
	{name: "title", label: "Title", input: "text"},
	{name: "description", label: "Description", input: "textarea"},
	{name: "gameprice", label: "Price", input: "number"},
}

func (s *Server) gameResource() *resource[game.Game] {
	return &resource[game.Game]{
		name:   game.Collection,
		label:  "Game",
		store:  s.stores.Games,
		fields: gameFields,
		title:  func(v game.Game) string { return v.Title },
		values: func(v game.Game) map[string]string {
			return map[string]string{
				"title":       v.Title,
				"description": v.Description,
				"gameprice":   ftoa(v.GamePrice),
			}
		},
		decode: decodeEntity[game.Game](gameFields),
	}
}
