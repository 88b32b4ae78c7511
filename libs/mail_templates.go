package libs

import (
	"fmt"
	"html"
)

const mailLayout = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .header { text-align: center; margin-bottom: 30px; }
        .logo { font-size: 24px; font-weight: bold; color: #1d4ed8; }
        .box { background-color: #eff6ff; border: 2px dashed #1d4ed8; padding: 20px; text-align: center; margin: 30px 0; border-radius: 8px; }
        .code { font-size: 36px; font-weight: bold; color: #1d4ed8; letter-spacing: 8px; }
        .footer { text-align: center; margin-top: 30px; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <div class="logo">CERMONT</div>
        </div>
        <h2 style="color: #333;">%s</h2>
        %s
        <div class="footer">
            <p>This is an automated email. Please do not reply.</p>
        </div>
    </div>
</body>
</html>
`

func renderMail(title, content string) string {
	return fmt.Sprintf(mailLayout, html.EscapeString(title), content)
}

func PasswordResetMail(to, otp string) Mail {
	content := fmt.Sprintf(`
        <p>You have requested to reset your password. Use the following one-time code:</p>
        <div class="box">
            <div class="code">%s</div>
        </div>
        <p><strong>This code will expire in 5 minutes.</strong></p>
        <p>If you did not request a password reset, please ignore this email.</p>`, html.EscapeString(otp))

	return Mail{
		To:      to,
		Subject: "Password Reset OTP - CERMONT",
		Body:    renderMail("Password Reset Request", content),
	}
}

func OrderAssignedMail(to, technician, numero, cliente string) Mail {
	content := fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Work order <strong>%s</strong> for <strong>%s</strong> has been assigned to you.</p>`,
		html.EscapeString(technician), html.EscapeString(numero), html.EscapeString(cliente))

	return Mail{
		To:      to,
		Subject: fmt.Sprintf("Work order %s assigned", numero),
		Body:    renderMail("New assignment", content),
	}
}

func OrderStateChangedMail(to, numero, from, state, comment string) Mail {
	content := fmt.Sprintf(`
        <p>Work order <strong>%s</strong> moved from <strong>%s</strong> to <strong>%s</strong>.</p>`,
		html.EscapeString(numero), html.EscapeString(from), html.EscapeString(state))
	if comment != "" {
		content += fmt.Sprintf(`
        <div class="box">%s</div>`, html.EscapeString(comment))
	}

	return Mail{
		To:      to,
		Subject: fmt.Sprintf("Work order %s: %s", numero, state),
		Body:    renderMail("Order status update", content),
	}
}

func EvidenceRejectedMail(to, numero, fileName, reason string) Mail {
	content := fmt.Sprintf(`
        <p>The evidence <strong>%s</strong> uploaded for work order <strong>%s</strong> was rejected.</p>
        <div class="box">%s</div>
        <p>Please upload a new file.</p>`,
		html.EscapeString(fileName), html.EscapeString(numero), html.EscapeString(reason))

	return Mail{
		To:      to,
		Subject: fmt.Sprintf("Evidence rejected for %s", numero),
		Body:    renderMail("Evidence rejected", content),
	}
}
