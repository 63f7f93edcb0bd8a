package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"holdem-server/pkg/account"
	"holdem-server/pkg/holdem"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var command = flag.String("c", "user", "specifies the command (user, chips)")

func main() {
	flag.Parse()

	switch *command {
	case "user":
		createUser()
	case "chips":
		setChips()
	default:
		logrus.Fatalf("unknown command: %s", *command)
	}
}

func createUser() {
	username := getInputOrExit("Username")
	email := getEmail()
	if email == "" {
		os.Exit(1)
	}

	password := getPassword()
	if password == "" {
		os.Exit(1)
	}

	acct, err := account.Create(context.Background(), username, email, password, holdem.StartingChips)
	if err != nil {
		logrus.WithError(err).Fatal("could not create account")
	}

	fmt.Printf("Created account %q with %d chips\n", acct.Username, acct.Chips)
}

func setChips() {
	username := getInputOrExit("Username")
	chipsStr := getInputOrExit("Chips")

	var chips int
	if _, err := fmt.Sscanf(chipsStr, "%d", &chips); err != nil {
		logrus.WithError(err).Fatal("could not parse chips")
	}

	if err := (account.Store{}).SetChips(context.Background(), username, chips); err != nil {
		logrus.WithError(err).Fatal("could not set chips")
	}

	fmt.Printf("Set %s's bankroll to %d chips\n", username, chips)
}

func getPassword() string {
	for {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(0)
		if err != nil {
			continue
		}
		fmt.Println("")

		password := strings.TrimRight(string(pwBytes), "\r\n")

		if password == "" {
			return ""
		}

		if len(password) < 6 {
			_, _ = fmt.Fprintf(os.Stderr, "password must be 6 or more characters\n")
			continue
		}

		return password
	}
}

func getEmail() string {
	for {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		str, err := reader.ReadString('\n')
		if err != nil {
			logrus.WithError(err).Warn("could not read email")
		}

		str = strings.TrimRight(str, "\r\n")

		if str == "" {
			return ""
		}

		if err := checkmail.ValidateFormat(str); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			continue
		}

		return str
	}
}

func getInputOrExit(question string) string {
	fmt.Printf("%s: ", question)
	reader := bufio.NewReader(os.Stdin)
	str, err := reader.ReadString('\n')
	if err != nil {
		logrus.WithError(err).Fatal("could not get answer")
	}

	str = strings.TrimRight(str, "\r\n")
	if str == "" {
		os.Exit(1)
	}

	return str
}
