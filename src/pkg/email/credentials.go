package email

import "os"

// SES reads its credentials and region from the standard
// AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY/AWS_REGION env vars through
// awsconfig.LoadDefaultConfig itself; only SendGrid and Mailgun need their
// own lookups here.

func sendgridAPIKey() string {
	return os.Getenv("SENDGRID_API_KEY")
}

func mailgunAPIKey() string {
	return os.Getenv("MAILGUN_API_KEY")
}

func mailgunDomain() string {
	return os.Getenv("MAILGUN_DOMAIN")
}
