// Command estante is the terminal client for the book-catalog service. It
// covers the same flows as the mobile app: register, login, logout, browse
// categories and books, view a book, create a book (optionally uploading a
// cover image first), and delete a book.
//
// Usage:
//
//	estante register -name NAME -email EMAIL -password PASS -confirm PASS
//	estante login -credential NAME_OR_EMAIL -password PASS
//	estante logout
//	estante status
//	estante categories
//	estante books
//	estante show -id ID
//	estante create -title T -author A -category ID [-summary S] [-image PATH]
//	estante delete -id ID
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cduarte/estante/internal/api"
	"github.com/cduarte/estante/internal/config"
	"github.com/cduarte/estante/internal/domain"
	"github.com/cduarte/estante/internal/i18n"
	"github.com/cduarte/estante/internal/outcome"
	"github.com/cduarte/estante/internal/secstore"
	"github.com/cduarte/estante/internal/services"
	"github.com/cduarte/estante/internal/session"
	"github.com/cduarte/estante/internal/sysutil"
)

// app bundles the wired client stack shared by all commands.
type app struct {
	cfg     config.Config
	msgs    *i18n.Catalog
	client  *api.Client
	session *session.Manager
	auth    *services.AuthService
	catalog *services.CatalogService
}

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	a := wire(cfg)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "register":
		err = a.register(ctx, os.Args[2:])
	case "login":
		err = a.login(ctx, os.Args[2:])
	case "logout":
		err = a.logout()
	case "status":
		err = a.status()
	case "categories":
		err = a.categories(ctx)
	case "books":
		err = a.books(ctx)
	case "show":
		err = a.show(ctx, os.Args[2:])
	case "create":
		err = a.create(ctx, os.Args[2:])
	case "delete":
		err = a.delete(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, a.localize(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: estante <register|login|logout|status|categories|books|show|create|delete> [flags]")
}

// wire builds the client stack: token cell shared between transport and
// session manager, typed API client, pipeline, and services. The persisted
// session, if any, is restored before the first request.
func wire(cfg config.Config) *app {
	msgs := i18n.New(cfg.Client.Locale)
	tokens := &api.TokenCell{}
	store := secstore.New(cfg.Client.TokenPath, cfg.Client.TokenSecret)
	sess := session.NewManager(store, tokens, log.Logger)
	client := api.New(cfg.Client.BaseURL, cfg.Client.HTTPTimeout, tokens, log.Logger)
	pipe := outcome.NewPipeline(msgs, log.Logger)

	sess.Restore()

	return &app{
		cfg:     cfg,
		msgs:    msgs,
		client:  client,
		session: sess,
		auth:    services.NewAuthService(client, sess, pipe),
		catalog: services.NewCatalogService(client, pipe),
	}
}

// await blocks until the outcome of the given invocation arrives on sub,
// skipping outcomes that belong to other invocations.
func await[T any](sub <-chan outcome.Outcome[T], inv string) outcome.Outcome[T] {
	for o := range sub {
		if o.Invocation == inv {
			return o
		}
	}
	return outcome.Outcome[T]{Kind: outcome.KindUnexpected, Message: "result channel closed"}
}

// localize maps validation sentinels to catalog text; other errors pass
// through unchanged.
func (a *app) localize(err error) string {
	for sentinel, key := range map[error]string{
		services.ErrNameRequired:       i18n.KeyNameRequired,
		services.ErrEmailRequired:      i18n.KeyEmailRequired,
		services.ErrCredentialRequired: i18n.KeyCredentialRequired,
		services.ErrPasswordRequired:   i18n.KeyPasswordRequired,
		services.ErrPasswordTooShort:   i18n.KeyPasswordTooShort,
		services.ErrPasswordMismatch:   i18n.KeyPasswordMismatch,
		services.ErrTitleRequired:      i18n.KeyTitleRequired,
		services.ErrAuthorRequired:     i18n.KeyAuthorRequired,
		services.ErrCategoryRequired:   i18n.KeyCategoryRequired,
		services.ErrImageRequired:      i18n.KeyImageRequired,
	} {
		if errors.Is(err, sentinel) {
			return a.msgs.T(key)
		}
	}
	return err.Error()
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "account name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (min 8 characters)")
	confirm := fs.String("confirm", "", "password confirmation")
	fs.Parse(args)

	sub, cancel := a.auth.Registration.Subscribe()
	defer cancel()
	inv, err := a.auth.Register(ctx, *name, *email, *password, *confirm)
	if err != nil {
		return err
	}
	o := await(sub, inv)
	if !o.Ok() {
		return errors.New(o.Message)
	}
	fmt.Printf("registered: %s <%s> (id %d)\n", o.Value.Name, o.Value.Email, o.Value.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	credential := fs.String("credential", "", "account name or email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	sub, cancel := a.auth.LoginResult.Subscribe()
	defer cancel()
	inv, err := a.auth.Login(ctx, *credential, *password)
	if err != nil {
		return err
	}
	o := await(sub, inv)
	if !o.Ok() {
		return errors.New(o.Message)
	}
	fmt.Printf("logged in as %s\n", o.Value.Name)
	return nil
}

func (a *app) logout() error {
	if err := a.auth.Logout(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func (a *app) status() error {
	fmt.Println(a.session.State().String())
	return nil
}

func (a *app) categories(ctx context.Context) error {
	sub, cancel := a.catalog.CategoriesResult.Subscribe()
	defer cancel()
	o := await(sub, a.catalog.FetchCategories(ctx))
	if !o.Ok() {
		return errors.New(o.Message)
	}
	for _, c := range o.Value {
		fmt.Printf("%3d  %s\n", c.ID, c.Name)
	}
	return nil
}

// books loads the home screen's data: categories and the book listing are
// fetched concurrently and both awaited before rendering.
func (a *app) books(ctx context.Context) error {
	catSub, catCancel := a.catalog.CategoriesResult.Subscribe()
	defer catCancel()
	bookSub, bookCancel := a.catalog.BooksResult.Subscribe()
	defer bookCancel()

	catInv := a.catalog.FetchCategories(ctx)
	bookInv := a.catalog.FetchBooks(ctx)

	catOut := await(catSub, catInv)
	bookOut := await(bookSub, bookInv)

	if !bookOut.Ok() {
		return errors.New(bookOut.Message)
	}
	names := map[int]string{}
	if catOut.Ok() {
		for _, c := range catOut.Value {
			names[c.ID] = c.Name
		}
	}
	if len(bookOut.Value) == 0 {
		fmt.Println("no books yet")
		return nil
	}
	for _, b := range bookOut.Value {
		cat := names[b.CategoryID]
		if cat == "" {
			cat = fmt.Sprintf("category %d", b.CategoryID)
		}
		fmt.Printf("%3d  %-40s %-24s %s\n", b.ID, b.Title, b.Author, cat)
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.Int("id", 0, "book id")
	fs.Parse(args)

	sub, cancel := a.catalog.BookDetail.Subscribe()
	defer cancel()
	o := await(sub, a.catalog.FetchBook(ctx, *id))
	if !o.Ok() {
		return errors.New(o.Message)
	}
	b := o.Value
	fmt.Printf("title:    %s\nauthor:   %s\ncategory: %d\n", b.Title, b.Author, b.CategoryID)
	if b.Summary != "" {
		fmt.Printf("summary:  %s\n", b.Summary)
	}
	if b.ImageURL != "" {
		fmt.Printf("cover:    %s\n", b.ImageURL)
	}
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "book title")
	summary := fs.String("summary", "", "optional summary")
	author := fs.String("author", "", "book author")
	category := fs.Int("category", 0, "category id")
	image := fs.String("image", "", "optional cover image path")
	fs.Parse(args)

	req := domain.CreateBookRequest{
		Title:      *title,
		Summary:    *summary,
		Author:     *author,
		CategoryID: *category,
	}

	sub, cancel := a.catalog.CreateResult.Subscribe()
	defer cancel()

	if *image != "" {
		flow := services.NewCreateBookFlow(a.catalog)
		if err := flow.Start(ctx, req, *image); err != nil {
			return err
		}
		// The flow publishes the terminal outcome (of either step) on
		// CreateResult; accept the first one that arrives.
		o := <-sub
		if !o.Ok() {
			return errors.New(o.Message)
		}
		fmt.Printf("created book %d: %s\n", o.Value.ID, o.Value.Title)
		return nil
	}

	inv, err := a.catalog.CreateBook(ctx, req)
	if err != nil {
		return err
	}
	o := await(sub, inv)
	if !o.Ok() {
		return errors.New(o.Message)
	}
	fmt.Printf("created book %d: %s\n", o.Value.ID, o.Value.Title)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int("id", 0, "book id")
	fs.Parse(args)

	sub, cancel := a.catalog.DeleteResult.Subscribe()
	defer cancel()
	o := await(sub, a.catalog.DeleteBook(ctx, *id))
	if !o.Ok() {
		return errors.New(o.Message)
	}
	fmt.Printf("deleted book %d\n", *id)
	return nil
}
