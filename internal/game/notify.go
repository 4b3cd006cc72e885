package game

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/ellyseum/ellymud-sub008/internal/display"
)

const lookTemplate = `{{ .Name }}
{{ .Description }}
{{- if .Items }}
{{- range .Items }}
There is {{ .TemplateId }} here.
{{- end }}
{{- end }}
{{- range .NPCs }}
{{ . }}
{{- end }}
{{- range .Players }}
{{ . }} is here.
{{- end }}
[Exits: {{ if .Exits }}{{ .Exits | join ", " }}{{ else }}none{{ end }}]`

const briefLookTemplate = `{{ .Name }} [Exits: {{ if .Exits }}{{ .Exits | join ", " }}{{ else }}none{{ end }}]`

type lookContext struct {
	Name        string
	Description string
	Exits       []string
	Items       []ItemInstance
	NPCs        []string
	Players     []string
}

// NotificationService formats and fans out room-scoped messages to the
// sessions physically present in a room.
type NotificationService struct {
	pub   Publisher
	look  *template.Template
	brief *template.Template
}

func NewNotificationService(pub Publisher) *NotificationService {
	funcs := sprig.TxtFuncMap()
	return &NotificationService{
		pub:   pub,
		look:  template.Must(template.New("look").Funcs(funcs).Parse(lookTemplate)),
		brief: template.Must(template.New("brief").Funcs(funcs).Parse(briefLookTemplate)),
	}
}

// NotifyRoom writes message to every session in the room, skipping the
// optionally excluded usernames. Used so an acting player does not see
// their own entrance echo.
func (s *NotificationService) NotifyRoom(ri *RoomInstance, message string, exclude ...string) {
	if ri == nil {
		return
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	data := []byte(display.Wrap(message))
	for _, sess := range ri.Players() {
		if skip[sess.Username()] {
			continue
		}
		// Delivery is best-effort; a dead subscription is the session
		// manager's problem.
		_ = s.pub.PublishToPlayer(sess.Username(), data)
	}
}

// NotifyPlayer writes a message to one session.
func (s *NotificationService) NotifyPlayer(username, message string) {
	_ = s.pub.PublishToPlayer(username, []byte(display.Wrap(message)))
}

// AnnouncePlayerEntrance tells a room that a player has arrived.
func (s *NotificationService) AnnouncePlayerEntrance(ri *RoomInstance, username string) {
	s.NotifyRoom(ri, fmt.Sprintf("%s enters the room.", display.Capitalize(username)), username)
}

// AnnouncePlayerDeparture tells a room that a player has left.
func (s *NotificationService) AnnouncePlayerDeparture(ri *RoomInstance, username, direction string) {
	msg := fmt.Sprintf("%s leaves.", display.Capitalize(username))
	if direction != "" {
		msg = fmt.Sprintf("%s leaves %s.", display.Capitalize(username), direction)
	}
	s.NotifyRoom(ri, msg, username)
}

// LookRoom renders the full room description to one session.
func (s *NotificationService) LookRoom(sess Session, ri *RoomInstance) error {
	return s.render(sess, ri, s.look)
}

// BriefLookRoom renders the abbreviated room description to one session.
func (s *NotificationService) BriefLookRoom(sess Session, ri *RoomInstance) error {
	return s.render(sess, ri, s.brief)
}

func (s *NotificationService) render(sess Session, ri *RoomInstance, tmpl *template.Template) error {
	ctx := lookContext{
		Name:        ri.Room.Name,
		Description: ri.Room.Description,
	}
	for _, e := range ri.Room.Exits {
		ctx.Exits = append(ctx.Exits, e.Direction)
	}
	ctx.Items = ri.Items()
	for _, n := range ri.NPCs() {
		if n.NPC.LongDesc != "" {
			ctx.NPCs = append(ctx.NPCs, n.NPC.LongDesc)
		}
	}
	for _, other := range ri.Players() {
		if other.Username() != sess.Username() {
			ctx.Players = append(ctx.Players, display.Capitalize(other.Username()))
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return fmt.Errorf("rendering room %q: %w", ri.Id, err)
	}
	return s.pub.PublishToPlayer(sess.Username(), []byte(display.Wrap(buf.String())))
}
