package utils

import (
	"fmt"
	"html/template"
)

// Notification templates for the three platform emails. All senders are
// best-effort: callers log failures and carry on.

const emailFooter = `<hr style="margin: 20px 0; border: none; border-top: 1px solid #eee;">
<p style="color: #666; font-size: 12px;">This is an automated message from our blog platform.</p>
</div>`

func emailWrap(body string) string {
	return `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">` + body + emailFooter
}

// SendRegistrationEmail welcomes a freshly registered user.
func SendRegistrationEmail(userEmail, userName string) error {
	body := emailWrap(fmt.Sprintf(`
<h2 style="color: #333;">Welcome to the Blog Platform!</h2>
<p>Dear %s,</p>
<p>Thank you for registering with our blog platform! Your account has been successfully created.</p>
<p>You can now:</p>
<ul>
  <li>Create and publish blog posts</li>
  <li>Comment on other posts</li>
  <li>Like and interact with content</li>
</ul>
<p><strong>Note:</strong> Your posts will need admin approval before they become visible to other users.</p>
<p>Happy blogging!</p>`, template.HTMLEscapeString(userName)))
	return SendMail(userEmail, "Welcome to the Blog Platform!", body)
}

// SendPostApprovedEmail notifies an author that their post went live.
func SendPostApprovedEmail(userEmail, userName, postTitle string) error {
	body := emailWrap(fmt.Sprintf(`
<h2 style="color: #28a745;">Post Approved!</h2>
<p>Dear %s,</p>
<p>Great news! Your blog post has been approved and is now live on our platform.</p>
<div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
  <h3 style="margin: 0; color: #333;">Post Title:</h3>
  <p style="margin: 5px 0 0 0; font-weight: bold;">"%s"</p>
</div>
<p>Your post is now visible to all users and they can like, comment, and interact with your content.</p>
<p>Keep up the great work!</p>`,
		template.HTMLEscapeString(userName), template.HTMLEscapeString(postTitle)))
	return SendMail(userEmail, "Your Post Has Been Approved!", body)
}

// SendNewCommentEmail notifies a post author about a comment from another user.
func SendNewCommentEmail(postAuthorEmail, postAuthorName, commenterName, postTitle, commentText string) error {
	body := emailWrap(fmt.Sprintf(`
<h2 style="color: #007bff;">New Comment on Your Post!</h2>
<p>Dear %s,</p>
<p>Someone has commented on your blog post!</p>
<div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
  <h3 style="margin: 0; color: #333;">Post:</h3>
  <p style="margin: 5px 0; font-weight: bold;">"%s"</p>
  <h4 style="margin: 15px 0 5px 0; color: #333;">Comment by %s:</h4>
  <p style="margin: 0; padding: 10px; background-color: white; border-left: 4px solid #007bff; border-radius: 3px;">%s</p>
</div>
<p>Log in to your account to view the full comment and reply if you'd like!</p>`,
		template.HTMLEscapeString(postAuthorName),
		template.HTMLEscapeString(postTitle),
		template.HTMLEscapeString(commenterName),
		template.HTMLEscapeString(commentText)))
	return SendMail(postAuthorEmail, "New Comment on Your Post", body)
}
