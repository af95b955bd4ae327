package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/sahilchouksey/eduplatform-api/model"
)

// Data carries the template variables. The JSON names match the
// send-notification request body.
type Data struct {
	CourseName    string   `json:"courseName,omitempty"`
	SubjectName   string   `json:"subjectName,omitempty"`
	Grade         *float64 `json:"grade,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	StudentName   string   `json:"studentName,omitempty"`
	ProfessorName string   `json:"professorName,omitempty"`
	CommentAuthor string   `json:"commentAuthor,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	ResetLink     string   `json:"resetLink,omitempty"`
}

// Rendered is a subject plus both bodies
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type emailTemplate struct {
	subject func(d Data) string
	body    string
}

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f4f5; margin: 0; padding: 40px 20px; }
.container { max-width: 600px; margin: 0 auto; background: white; border-radius: 16px; overflow: hidden; }
.header { background: linear-gradient(135deg, #3B82F6, #8B5CF6); padding: 40px; text-align: center; }
.header h1 { color: white; margin: 0; font-size: 28px; }
.content { padding: 40px; }
.content h2 { color: #1f2937; margin-top: 0; }
.content p { color: #6b7280; line-height: 1.6; }
.highlight { background: #f0f9ff; border-left: 4px solid #3B82F6; padding: 16px; margin: 20px 0; }
.grade { font-size: 48px; font-weight: bold; color: #10B981; text-align: center; margin: 20px 0; }
.footer { background: #f9fafb; padding: 20px; text-align: center; color: #9ca3af; font-size: 14px; }
</style></head>
<body>
<div class="container">
<div class="header"><h1>EduPlatform</h1></div>
<div class="content">
<p>Hello {{.ToName}},</p>
{{template "body" .}}
</div>
<div class="footer"><p>EduPlatform</p></div>
</div>
</body>
</html>`

var templates = map[model.NotificationType]emailTemplate{
	model.NotificationSubmissionReceived: {
		subject: func(d Data) string { return "New submission - " + d.CourseName },
		body: `<h2>New submission received</h2>
<p>A student submitted work for your course.</p>
<div class="highlight">
<strong>Student:</strong> {{.StudentName}}<br>
<strong>Course:</strong> {{.CourseName}}<br>
<strong>Subject:</strong> {{.SubjectName}}
</div>`,
	},
	model.NotificationSubmissionGraded: {
		subject: func(d Data) string { return "Your work has been graded - " + d.CourseName },
		body: `<h2>Your work has been graded!</h2>
<p>Your professor graded your work for <strong>{{.CourseName}}</strong>.</p>
<div class="grade">{{.GradeText}}/20</div>
{{if .Feedback}}<div class="highlight"><strong>Feedback:</strong><br>{{.Feedback}}</div>{{end}}`,
	},
	model.NotificationNewCourse: {
		subject: func(d Data) string { return "New course - " + d.CourseName },
		body: `<h2>A new course is available!</h2>
<div class="highlight">
<strong>Course:</strong> {{.CourseName}}<br>
<strong>Subject:</strong> {{.SubjectName}}<br>
<strong>Professor:</strong> {{.ProfessorName}}
</div>`,
	},
	model.NotificationCommentAdded: {
		subject: func(d Data) string { return "New comment - " + d.CourseName },
		body: `<h2>New comment on your course</h2>
<p><strong>{{.CommentAuthor}}</strong> commented on <strong>{{.CourseName}}</strong>.</p>
{{if .Comment}}<div class="highlight">{{.Comment}}</div>{{end}}`,
	},
	model.NotificationDeadlineReminder: {
		subject: func(d Data) string { return "Deadline approaching - " + d.CourseName },
		body: `<h2>Deadline approaching</h2>
<p>The deadline for <strong>{{.CourseName}}</strong> is in less than 24 hours and you have not submitted yet.</p>`,
	},
	model.EmailPasswordReset: {
		subject: func(Data) string { return "Reset your password - EduPlatform" },
		body: `<h2>Reset your password</h2>
<p>We received a request to reset your password. The link below is valid for 1 hour.</p>
<p><a href="{{.ResetLink}}">{{.ResetLink}}</a></p>
<p>If you did not ask for this, ignore this email.</p>`,
	},
}

const genericBody = `<p>You have a new notification.</p>`

// compiled holds one parsed template per type plus the generic one under ""
var compiled = map[model.NotificationType]*template.Template{}

func init() {
	base := template.Must(template.New("layout").Parse(layout))
	for typ, t := range templates {
		compiled[typ] = template.Must(template.Must(base.Clone()).New("body").Parse(t.body))
	}
	compiled[""] = template.Must(template.Must(base.Clone()).New("body").Parse(genericBody))
}

// view is what templates see
type view struct {
	Data
	ToName    string
	GradeText string
}

// Render builds the email for a notification type. Unknown types get the generic template.
func Render(typ model.NotificationType, toName string, data Data) (*Rendered, error) {
	subject := "EduPlatform notification"
	tmpl := compiled[""]
	if t, ok := templates[typ]; ok {
		subject = t.subject(data)
		tmpl = compiled[typ]
	}

	if toName == "" {
		toName = "there"
	}
	v := view{Data: data, ToName: toName}
	if data.Grade != nil {
		v.GradeText = strconv.FormatFloat(*data.Grade, 'f', -1, 64)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return nil, fmt.Errorf("failed to render %s email: %w", typ, err)
	}

	html := buf.String()
	return &Rendered{Subject: subject, HTML: html, Text: HTMLToText(html)}, nil
}
