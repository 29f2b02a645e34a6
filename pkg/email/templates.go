package email

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// HeaderAcceptanceID lets a department mailbox thread notices per letter.
const HeaderAcceptanceID = "X-Internhub-Acceptance-Id"

// LetterForwardedData contains what a department needs to file an
// acceptance letter.
type LetterForwardedData struct {
	AcceptanceID   int64
	DepartmentName string
	DepartmentMail string
	StudentName    string
	CompanyName    string
	Decision       string
	LetterText     string
	AppName        string
}

// BuildLetterForwardedEmail creates the notice a department receives when a
// company's decision letter is forwarded to it.
func BuildLetterForwardedEmail(data LetterForwardedData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "InternHub"
	}

	deptName := data.DepartmentName
	if deptName == "" {
		deptName = "Department"
	}

	student := data.StudentName
	if student == "" {
		student = "a student"
	}

	company := data.CompanyName
	if company == "" {
		company = "the host company"
	}

	decision := strings.ToLower(data.Decision)
	subject := fmt.Sprintf("%s: internship letter for %s (%s)", appName, student, decision)

	textBody := fmt.Sprintf(`Dear %s,

%s has issued an internship decision letter for %s.

Decision: %s

%s

This letter was forwarded to you through %s.

Regards,
The %s Team`,
		deptName, company, student, data.Decision, data.LetterText, appName, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Dear %s,</h2>
    <p><strong>%s</strong> has issued an internship decision letter for <strong>%s</strong>.</p>
    <p>Decision: <strong>%s</strong></p>
    <blockquote style="background-color: #f3f4f6; padding: 12px 16px; border-left: 4px solid #2563eb; white-space: pre-wrap;">%s</blockquote>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">This letter was forwarded to you through %s.<br>The %s Team</p>
</body>
</html>`,
		html.EscapeString(deptName), html.EscapeString(company), html.EscapeString(student),
		html.EscapeString(data.Decision), html.EscapeString(data.LetterText), appName, appName)

	m := Message{
		To:       []string{data.DepartmentMail},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
	if data.AcceptanceID > 0 {
		m.Headers = map[string]string{HeaderAcceptanceID: strconv.FormatInt(data.AcceptanceID, 10)}
	}
	return m
}
