package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phishlens/internal/controller"
	"github.com/mikey/phishlens/internal/core"
)

// CommandKind identifies a console command
type CommandKind int

const (
	CmdURLMode CommandKind = iota
	CmdEmailMode
	CmdSandboxURL
	CmdSandboxEmail
	CmdReport
	CmdShow
	CmdRefresh
	CmdHelp
	CmdQuit
)

// ErrEmptyCommand is returned for blank input lines
var ErrEmptyCommand = errors.New("empty command")

// Command is a parsed console line
type Command struct {
	Kind   CommandKind
	URL    string
	Email  controller.EmailInput
	Report core.ReportKind
}

// Usage lists the console commands
const Usage = `Commands:
  url                                         switch to URL mode
  email                                       switch to email mode
  refresh                                     re-read the active tab
  sandbox url <url>                           analyze any URL (URL mode)
  sandbox email <sender> | <subject> | <body> analyze any email (email mode)
  report phishing|false_positive|false_negative
  show                                        print the full state
  help                                        print this help
  quit                                        exit`

// ParseCommand parses one console line
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmptyCommand
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "url":
		return Command{Kind: CmdURLMode}, nil
	case "email":
		return Command{Kind: CmdEmailMode}, nil
	case "refresh":
		return Command{Kind: CmdRefresh}, nil
	case "show":
		return Command{Kind: CmdShow}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit":
		return Command{Kind: CmdQuit}, nil
	case "report":
		kind, ok := core.ParseReportKind(rest)
		if !ok {
			return Command{}, fmt.Errorf("unknown report kind %q", rest)
		}
		return Command{Kind: CmdReport, Report: kind}, nil
	case "sandbox":
		return parseSandbox(rest)
	}
	return Command{}, fmt.Errorf("unknown command %q", name)
}

func parseSandbox(args string) (Command, error) {
	target, rest, _ := strings.Cut(args, " ")
	switch strings.ToLower(target) {
	case "url":
		return Command{Kind: CmdSandboxURL, URL: rest}, nil
	case "email":
		parts := strings.SplitN(rest, "|", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		return Command{Kind: CmdSandboxEmail, Email: controller.EmailInput{
			Sender:  strings.TrimSpace(parts[0]),
			Subject: strings.TrimSpace(parts[1]),
			Body:    strings.TrimSpace(parts[2]),
		}}, nil
	}
	return Command{}, fmt.Errorf("sandbox expects url or email, got %q", target)
}
