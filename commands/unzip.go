package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/parzip/parzip/common"
	"github.com/parzip/parzip/helpers/archives"
)

type UnzipCommand struct {
	OutputDir string `long:"output-dir" short:"d" description:"Directory to extract files to" env:"PARZIP_OUTPUT_DIR"`
}

func (c *UnzipCommand) Execute(cliCtx *cli.Context) {
	if c.OutputDir == "" {
		logrus.Fatalln("Missing --output-dir extraction directory")
	}

	args := cliCtx.Args()
	if len(args) != 1 {
		logrus.Fatalln("Expected exactly one archive path")
	}

	err := archives.ExtractZipFile(args[0], c.OutputDir)
	if err != nil {
		logrus.Fatalln(err)
	}

	logrus.Infoln("Extracted", args[0], "to", c.OutputDir)
}

func init() {
	common.RegisterCommand2("unzip", "extract a zip file, restoring permissions", &UnzipCommand{})
}
