package email

import "fmt"

// PasscodeSubject is the subject line of the verification email
const PasscodeSubject = "Your Pet Feeder Verification Code"

// PasscodeHTML renders the verification email body
func PasscodeHTML(code string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; text-align: center; color: #333;">
			<h2>Welcome to Pet Feeder!</h2>
			<p>Your verification code is:</p>
			<p style="font-size: 24px; font-weight: bold; letter-spacing: 5px; background-color: #f0f0f0; padding: 10px; border-radius: 5px;">
				%s
			</p>
			<p>This code will expire in 10 minutes.</p>
		</div>
	`, code)
}
