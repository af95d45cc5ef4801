package main

import (
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/content"
	"github.com/dgallion1/sitetree/internal/parser"
	"github.com/dgallion1/sitetree/internal/siteconfig"
)

type commandContext struct {
	rootFlag   *string
	configFlag *string
	policyFlag *string

	siteOnce sync.Once
	site     siteconfig.Config
	siteErr  error

	// logger is replaced by commands that want progress output.
	logger *slog.Logger
}

func newCommandContext(rootFlag, configFlag, policyFlag *string) *commandContext {
	return &commandContext{
		rootFlag:   rootFlag,
		configFlag: configFlag,
		policyFlag: policyFlag,
		logger:     slog.New(slog.DiscardHandler),
	}
}

func (c *commandContext) ensureSite() (siteconfig.Config, error) {
	c.siteOnce.Do(func() {
		var opts []siteconfig.Option
		if p := strings.TrimSpace(*c.policyFlag); p != "" {
			policy, err := cattree.ParseCollisionPolicy(p)
			if err != nil {
				c.siteErr = err
				return
			}
			opts = append(opts, siteconfig.WithCollisionPolicy(policy))
		}
		if root := strings.TrimSpace(*c.rootFlag); root != "" {
			opts = append(opts, siteconfig.WithDirs(siteconfig.Dirs{Input: root}))
		}

		if path := strings.TrimSpace(*c.configFlag); path != "" {
			c.site, c.siteErr = siteconfig.Load(path, opts...)
			return
		}
		c.site, c.siteErr = siteconfig.New(opts...)
	})
	return c.site, c.siteErr
}

// contentFS is the input directory of the resolved site.
func (c *commandContext) contentFS() fs.FS {
	return os.DirFS(c.site.Dirs().Input)
}

func (c *commandContext) source() *content.Source {
	fsys := c.contentFS()
	loader := content.NewLoader(fsys, parser.NewRegistry(parser.Options{}), c.logger)
	return content.NewSource(fsys, loader, c.site.Categories(), c.site.Reserved())
}
