package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"saffron/rdx"
	"saffron/seo"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Margin(1, 0, 0, 0)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var cacheNamespaces = []string{
	rdx.NSList, rdx.NSSearch, rdx.NSRecipe, rdx.NSPopular, rdx.NSRelated,
	rdx.NSCategories, rdx.NSTags, rdx.NSPosts, rdx.NSPost,
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Manage the tag registry",
		Commands: []*cli.Command{
			{
				Name:  "recount",
				Usage: "Recount tag usage across published recipes and posts",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(ctx context.Context, a *app) error {
						n, err := a.tags.Recount(ctx)
						if err != nil {
							return err
						}
						fmt.Printf("%d tags in use\n", n)
						return nil
					})
				},
			},
		},
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the response cache",
		Commands: []*cli.Command{
			{
				Name:  "flush",
				Usage: "Drop cached responses. Buffered view counters are kept",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "namespace",
						Usage: "Only flush these namespaces (repeatable)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					namespaces := c.StringSlice("namespace")
					if len(namespaces) == 0 {
						namespaces = cacheNamespaces
					}
					return withApp(ctx, c, func(ctx context.Context, a *app) error {
						var failed []string
						for _, ns := range namespaces {
							if !a.cache.Namespace(ctx, ns) {
								failed = append(failed, ns)
							}
						}
						if len(failed) > 0 {
							return fmt.Errorf("flush failed for %s", strings.Join(failed, ", "))
						}
						fmt.Printf("flushed %d namespaces\n", len(namespaces))
						return nil
					})
				},
			},
		},
	}
}

func sitemapCommand() *cli.Command {
	return &cli.Command{
		Name:  "sitemap",
		Usage: "Write sitemap.xml for the published content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (stdout when empty)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				var w io.Writer = os.Stdout
				if path := c.String("output"); path != "" {
					f, err := os.Create(path)
					if err != nil {
						return fmt.Errorf("create %s: %w", path, err)
					}
					defer f.Close()
					w = f
				}
				g := seo.Generator{SiteURL: a.cfg.SiteURL, Recipes: a.recipes, Posts: a.posts}
				return g.Write(ctx, w)
			})
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show content statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of tags to list",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				return showStats(ctx, a, int(c.Int("top")))
			})
		},
	}
}

func showStats(ctx context.Context, a *app, top int) error {
	recipes, err := a.recipes.Published(ctx)
	if err != nil {
		return fmt.Errorf("loading recipes: %w", err)
	}
	posts, err := a.posts.Published(ctx)
	if err != nil {
		return fmt.Errorf("loading posts: %w", err)
	}
	tags, err := a.tags.All(ctx)
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}

	byCategory := map[string]int{}
	for _, r := range recipes {
		byCategory[r.Category]++
	}
	categories := make([]string, 0, len(byCategory))
	for name := range byCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	title := cases.Title(language.English)

	fmt.Println(titleStyle.Render("Saffron content"))
	fmt.Printf("Recipes: %d\n", len(recipes))
	fmt.Printf("Posts:   %d\n", len(posts))
	fmt.Printf("Tags:    %d\n", len(tags))

	fmt.Println(headerStyle.Render("Recipes by category"))
	for _, name := range categories {
		fmt.Printf("  %-20s %d\n", title.String(name), byCategory[name])
	}

	fmt.Println(headerStyle.Render("Top tags"))
	if len(tags) == 0 {
		fmt.Println(metaStyle.Render("  no tags yet; run `saffron tags recount`"))
		return nil
	}
	for _, t := range tags[:min(top, len(tags))] {
		fmt.Printf("  #%-19s %d\n", t.Name, t.Count)
	}
	return nil
}
