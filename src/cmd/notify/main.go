// in case you need to create an entrypoint with multiple subprograms
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-grandtotal/src/pkg/config"
	"receipt-grandtotal/src/pkg/email"
	"receipt-grandtotal/src/pkg/report"
	"receipt-grandtotal/src/pkg/util"
)

/*
Pick a provider and use it to send a test email to admin/specified address.
Specify the test email's HTML and plain-text file paths with -html and -text.
*/
func testProvider(subprogram string, flags []string) {
	config.CheckIfEnvVarsPresent(
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION", // amazon ses
		"MAILGUN_DOMAIN", "MAILGUN_API_KEY", // mailgun
		"SENDGRID_API_KEY", // sendgrid
	)

	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	// custom flags
	provider := subprogramCmd.String("provider", "mailgun", "Provider to use when sending emails")
	senderAddress := subprogramCmd.String("sender", "", "Sender's address")
	recipientAddress := subprogramCmd.String("recipient", "", "Recipient's address")
	subject := subprogramCmd.String("subject", "Test subject", "Subject of an email")
	emailHtmlFilePath := subprogramCmd.String("html", "./tmp/email.html", "Html of an email, with variables substituted")
	emailTextFilePath := subprogramCmd.String("text", "./tmp/email.txt", "Plain text of an email, with variables substituted")

	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	config.InitializeConfig(*configPath)

	util.RequiredFlag(senderAddress, "sender")
	util.RequiredFlag(recipientAddress, "recipient")
	util.RequiredFlag(provider, "provider")
	util.EnsureFlags()

	recipientAddresses := strings.Split(*recipientAddress, ",")

	htmlFileContentBytes, err := os.ReadFile(*emailHtmlFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailHtmlFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", htmlFileContentBytes)
	textFileContentBytes, err := os.ReadFile(*emailTextFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailTextFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", textFileContentBytes)

	sendEmails := true
	e := email.SendMessage(email.Provider(*provider), &sendEmails, *senderAddress, recipientAddresses, *subject, string(textFileContentBytes), string(htmlFileContentBytes), nil)
	e.QuitIf(xerr.ErrorTypeError)
}

// sendReport builds the same monthly report cmd/report renders and emails
// it directly, skipping the intermediate HTML file on disk.
func sendReport(subprogram string, flags []string) {
	config.CheckIfEnvVarsPresent(
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION",
		"MAILGUN_DOMAIN", "MAILGUN_API_KEY",
		"SENDGRID_API_KEY",
	)

	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")
	provider := subprogramCmd.String("provider", "mailgun", "Provider to use when sending emails")
	senderAddress := subprogramCmd.String("sender", "", "Sender's address")
	recipientAddress := subprogramCmd.String("recipient", "", "Comma-separated recipient addresses")
	outDirFlag := subprogramCmd.String("out", "./out", "Directory to scan for extract-batch run output")
	yearFlag := subprogramCmd.Int("year", 0, "Year to report (default: current year)")
	monthFlag := subprogramCmd.Int("month", 0, "Month to report 1-12 (default: current month)")
	timezoneFlag := subprogramCmd.String("tz", "Asia/Jakarta", "IANA timezone (e.g., Asia/Jakarta)")
	maxRowsFlag := subprogramCmd.Int("max-rows", 10, "Maximum category rows before grouping remainder into 'Other'")
	dryRun := subprogramCmd.Bool("dry-run", false, "Render the report but do not actually send it")

	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	config.InitializeConfig(*configPath)

	util.RequiredFlag(senderAddress, "sender")
	util.RequiredFlag(recipientAddress, "recipient")
	util.EnsureFlags()

	location, locationErr := time.LoadLocation(*timezoneFlag)
	if locationErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Invalid timezone '%s'; falling back to UTC", *timezoneFlag)
		location = time.UTC
	}
	now := time.Now().In(location)

	year := *yearFlag
	if year == 0 {
		year = now.Year()
	}
	month := *monthFlag
	if month == 0 {
		month = int(now.Month())
	}

	options := report.Options{
		OutDir:      *outDirFlag,
		Year:        year,
		Month:       time.Month(month),
		Timezone:    *timezoneFlag,
		MaxRows:     *maxRowsFlag,
		ReportTitle: fmt.Sprintf("Grand total report — %s %d", time.Month(month).String(), year),
	}

	monthlyReport, reportErr := report.Build(options)
	reportErr.QuitIf(xerr.ErrorTypeError)

	htmlBody := report.RenderHTML(monthlyReport)
	textBody := fmt.Sprintf("%s\n\nOpen this email in an HTML-capable client to see the breakdown by category.", monthlyReport.Title)

	recipientAddresses := strings.Split(*recipientAddress, ",")
	sendEmails := !*dryRun
	e := email.SendMessage(email.Provider(*provider), &sendEmails, *senderAddress, recipientAddresses, monthlyReport.Title, textBody, htmlBody, nil)
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Notice1, palette.GreenBold, "%s '%s' to '%s'", "Sent report", monthlyReport.Title, *recipientAddress)
}

func main() {
	if len(os.Args) < 2 {
		tl.Log(tl.Error, palette.Red, "Usage: %s", "go run src/cmd/notify/main.go subprogram_name (test-provider | send-report)")
		os.Exit(1)
	}
	subprogram := os.Args[1]
	flags := os.Args[2:]

	switch subprogram {
	case "test-provider":
		testProvider(subprogram, flags)
	case "send-report":
		sendReport(subprogram, flags)
	default:
		tl.Log(tl.Error, palette.Red, "Unknown subprogram: %s", subprogram)
		os.Exit(1)
	}
}
