package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/parzip/parzip/common"
	"github.com/parzip/parzip/helpers/archives"
)

type ZipCommand struct {
	Output         string   `long:"output" short:"o" description:"Destination archive path" env:"PARZIP_OUTPUT"`
	Compression    string   `long:"compression" description:"Compression method: deflate or stored" env:"PARZIP_COMPRESSION"`
	Level          string   `long:"compression-level" description:"Compression level: fastest, fast, default, slow or slowest" env:"PARZIP_COMPRESSION_LEVEL"`
	Concurrency    int      `long:"concurrency" description:"Number of parallel compression workers (defaults to the number of CPUs)" env:"PARZIP_CONCURRENCY"`
	FollowSymlinks bool     `long:"follow-symlinks" description:"Follow symbolic links instead of skipping them"`
	FailFast       bool     `long:"fail-fast" description:"Abort on the first failing path instead of reporting all failures at once"`
	Exclude        []string `long:"exclude" description:"Exclude paths matching the pattern"`
}

func getCompressionMethod(name string) archives.CompressionMethod {
	switch name {
	case "stored":
		return archives.Stored
	case "deflate", "deflated", "":
		return archives.Deflate
	}

	logrus.Warningf("compression method %q is invalid, falling back to deflate", name)

	return archives.Deflate
}

// getCompressionLevel converts the compression level name to compression level type
func getCompressionLevel(name string) archives.CompressionLevel {
	switch name {
	case "fastest":
		return archives.FastestCompression
	case "fast":
		return archives.FastCompression
	case "slow":
		return archives.SlowCompression
	case "slowest":
		return archives.SlowestCompression
	case "default", "":
		return archives.DefaultCompression
	}

	logrus.Warningf("compression level %q is invalid, falling back to default", name)

	return archives.DefaultCompression
}

func (c *ZipCommand) Execute(cliCtx *cli.Context) {
	if c.Output == "" {
		logrus.Fatalln("Missing --output archive path")
	}

	paths := cliCtx.Args()
	if len(paths) == 0 {
		logrus.Warningln("No source paths given, creating an empty archive")
	}

	opts := &archives.Options{
		Method:         getCompressionMethod(c.Compression),
		Level:          getCompressionLevel(c.Level),
		Concurrency:    c.Concurrency,
		FollowSymlinks: c.FollowSymlinks,
		FailFast:       c.FailFast,
		Exclude:        c.Exclude,
	}

	err := archives.CreateZipFile(c.Output, paths, opts)
	if err != nil {
		logrus.Fatalln(err)
	}

	logrus.Infoln("Created", c.Output)
}

func init() {
	common.RegisterCommand2("zip", "archive files and directories into a zip file", &ZipCommand{})
}
