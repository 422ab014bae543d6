package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"college/internal/auth"
	"college/internal/domain"
	"college/internal/repository"
	"college/internal/store"
	"college/migrations"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	txManager repository.TxManager
	db        *store.DB
	out       io.Writer
}

func newCommandLine(txManager repository.TxManager, db *store.DB) *commandLine {
	return &commandLine{txManager: txManager, db: db, out: os.Stdout}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate - apply pending schema migrations")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME [-role faculty|admin] - create an account; the password is prompted next")
	fmt.Fprintln(cli.out, "  addcourse -code CODE -department DEPT -semester N [-faculty NAME] - register a course")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(ctx)
	case "adduser":
		return cli.addUser(ctx, args[2:])
	case "addcourse":
		return cli.addCourse(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(ctx context.Context) error {
	if cli.db == nil {
		return errors.New("migrate needs STORE_BACKEND=postgres")
	}
	applied, err := migrations.Up(ctx, cli.db.Client)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cli.out, "schema is up to date")
	}
	for _, name := range applied {
		fmt.Fprintf(cli.out, "applied %s\n", name)
	}
	return nil
}

func (cli *commandLine) addUser(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	username := cmd.String("username", "", "The account's login name.")
	role := cmd.String("role", auth.RoleFaculty, "faculty or admin.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		cmd.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return errHelp
	}

	account, err := auth.NewAuthenticator(cli.txManager).Register(ctx, *username, string(pwd), *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s account %s\n", account.Role, account.Username)
	return nil
}

func (cli *commandLine) addCourse(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("addcourse", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	code := cmd.String("code", "", "Course code, unique per department.")
	department := cmd.String("department", "", "Department offering the course.")
	semester := cmd.Int("semester", 0, "Semester the course is taught in (1-8).")
	faculty := cmd.String("faculty", "", "Name of the faculty member teaching it.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*code) == "" || strings.TrimSpace(*department) == "" || *semester < 1 || *semester > 8 {
		cmd.Usage()
		return errHelp
	}

	course := domain.Course{
		CourseCode:  strings.TrimSpace(*code),
		FacultyName: *faculty,
		Semester:    *semester,
		Department:  strings.TrimSpace(*department),
	}
	err := cli.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Courses.Create(ctx, course)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created course %s (%s, semester %d)\n", course.CourseCode, course.Department, course.Semester)
	return nil
}
