// restitution TUI - a terminal client for the restitution agent.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/restitution-tui/internal/api"
	"github.com/jeranaias/restitution-tui/internal/config"
	"github.com/jeranaias/restitution-tui/internal/export"
	"github.com/jeranaias/restitution-tui/internal/format"
	"github.com/jeranaias/restitution-tui/internal/reveal"
	"github.com/jeranaias/restitution-tui/internal/session"
	"github.com/jeranaias/restitution-tui/internal/transport"
	"github.com/jeranaias/restitution-tui/internal/ui/chat"
	"github.com/jeranaias/restitution-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "chemin du fichier de configuration")
		baseURL     = flag.String("base-url", "", "URL du backend (prioritaire sur la configuration)")
		strategy    = flag.String("strategy", "", "stratégie de réception: stream ou poll")
		showVersion = flag.Bool("version", false, "afficher la version")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("restitution-tui %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *strategy != "" {
		cfg.Transport.Strategy = *strategy
	}
	if err := cfg.Validate(); err != nil {
		fatal(fmt.Errorf("configuration invalide: %w", err))
	}

	client := api.NewClient(cfg.API.BaseURL)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
	if err := login(ctx, client); err != nil {
		cancel()
		fatal(err)
	}
	cancel()

	model, err := buildChatModel(cfg, client)
	if err != nil {
		fatal(err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal(fmt.Errorf("erreur d'exécution: %w", err))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Erreur :", err)
	os.Exit(1)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// =============================================================================
// LOGIN FLOW
// =============================================================================

// login walks the user through project selection and authentication on the
// plain terminal, before the TUI takes over the screen.
func login(ctx context.Context, client *api.Client) error {
	projects, err := client.Projects(ctx)
	if err != nil {
		return fmt.Errorf("chargement des projets: %w", err)
	}
	if len(projects) == 0 {
		return fmt.Errorf("aucun projet disponible sur %s", client.BaseURL())
	}

	project, err := chooseProject(projects)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Adresse e-mail : ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("lecture de l'adresse: %w", err)
	}

	fmt.Print("Mot de passe : ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("lecture du mot de passe: %w", err)
	}

	result, err := client.Login(ctx, strings.TrimSpace(email), string(password), project.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Connecté en tant que %s sur %s.\n", result.UserName, result.ProjectName)
	return nil
}

func chooseProject(projects []api.Project) (api.Project, error) {
	if len(projects) == 1 {
		return projects[0], nil
	}

	fmt.Println("Projets disponibles :")
	for i, p := range projects {
		fmt.Printf("  %d. %s\n", i+1, p.Name)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("Projet [1-%d] : ", len(projects))
		line, err := reader.ReadString('\n')
		if err != nil {
			return api.Project{}, fmt.Errorf("lecture de la sélection: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && n >= 1 && n <= len(projects) {
			return projects[n-1], nil
		}
		fmt.Println("Choix invalide.")
	}
}

// =============================================================================
// WIRING
// =============================================================================

func buildChatModel(cfg *config.Config, client *api.Client) (tea.Model, error) {
	policy, err := reveal.ParsePolicy(cfg.Reveal.Policy)
	if err != nil {
		return nil, err
	}

	strategy, err := buildStrategy(cfg, client)
	if err != nil {
		return nil, err
	}

	controller := session.NewController(session.Config{
		Strategy: strategy,
		Reveal: reveal.Config{
			Interval: cfg.RevealInterval(),
			Chunk:    cfg.Reveal.ChunkRunes,
			Policy:   policy,
		},
		ProjectName: client.ProjectName(),
	})

	formatter := format.New(format.Options{
		RedactedPhrases: cfg.Format.RedactedPhrases,
	})

	exportOpts := export.DefaultOptions()
	if cfg.Export.OutputDir != "" {
		exportOpts.OutputDir = cfg.Export.OutputDir
	}
	if cfg.Export.Filename != "" {
		exportOpts.Filename = cfg.Export.Filename
	}
	exportOpts.OpenAfterExport = cfg.Export.OpenAfterExport

	return chat.New(chat.Config{
		Client:        client,
		Controller:    controller,
		Exporter:      export.NewBuilder(formatter),
		ExportOptions: exportOpts,
		Theme:         styles.NewTheme(),
	}), nil
}

func buildStrategy(cfg *config.Config, client *api.Client) (transport.Strategy, error) {
	switch cfg.Transport.Strategy {
	case config.StrategyStream:
		return transport.NewStreamStrategy(transport.StreamConfig{
			BaseURL: client.BaseURL(),
			Token:   client.Token(),
		}), nil
	case config.StrategyPoll:
		return transport.NewPollStrategy(transport.PollConfig{
			BaseURL:  client.BaseURL(),
			Token:    client.Token(),
			Interval: cfg.PollInterval(),
			Timeout:  cfg.PollTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("stratégie inconnue: %q", cfg.Transport.Strategy)
	}
}
