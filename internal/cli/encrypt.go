package cli

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/filex"
	"github.com/dmitrijs2005/ipchunk/internal/models"
)

type encryptOptions struct {
	keys        keyOptions
	dest        string
	contentType string
	tags        []string
	version     string
	premium     bool
	priceUSD    float64
	creator     string
	fileType    string
}

func (a *App) encryptCommand() *cobra.Command {
	var o encryptOptions

	cmd := &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Chunk and encrypt a file",
		Long: "Chunk and encrypt a file into a new directory under the output\n" +
			"directory (or --dest). The directory name is printed on success.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncrypt(cmd, args[0], &o)
		},
	}

	o.keys.bind(cmd, "", "encryption")
	f := cmd.Flags()
	f.StringVar(&o.dest, "dest", "", "write into this directory instead of a new one under --out")
	f.StringVar(&o.contentType, "content-type", "", "content label stored in the metadata")
	f.StringArrayVar(&o.tags, "tag", nil, "metadata tag (repeatable)")
	f.StringVar(&o.version, "version", models.DefaultVersion, "metadata version")
	f.BoolVar(&o.premium, "premium", false, "mark the asset as premium")
	f.Float64Var(&o.priceUSD, "price", 0, "price in USD (fractions are dropped)")
	f.StringVar(&o.creator, "creator", "", "creator identifier")
	f.StringVar(&o.fileType, "file-type", "", "file type copied onto every chunk (default: guessed from the extension)")

	return cmd
}

func (a *App) runEncrypt(cmd *cobra.Command, path string, o *encryptOptions) error {
	ctx := cmd.Context()

	key, err := a.resolveKey(&o.keys, "encryption")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fileType := o.fileType
	if fileType == "" {
		fileType = mime.TypeByExtension(filepath.Ext(path))
	}
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	var creator []byte
	if o.creator != "" {
		creator = []byte(o.creator)
	}

	asset := models.NewAsset(models.AssetParams{
		Content:     content,
		ContentType: o.contentType,
		Tags:        o.tags,
		Version:     o.version,
		IsPremium:   o.premium,
		PriceUSD:    o.priceUSD,
		CreatorID:   creator,
		FileType:    fileType,
	})

	svc, err := a.newService(a.config.NonceMode, a.config.DigestAlgorithm)
	if err != nil {
		return err
	}

	res, err := svc.Publish(ctx, asset, key, a.config.MinChunks)
	if err != nil {
		return err
	}

	dir := o.dest
	if dir == "" {
		dir, err = filex.NewRunDir(a.config.OutputDir)
	} else {
		dir, err = filex.EnsureSubdDir(dir, "")
	}
	if err != nil {
		return err
	}

	if err := writeDir(dir, res.Manifest, res.Chunks); err != nil {
		return err
	}

	a.logger.Info(ctx, "encrypted", "file", path, "dir", dir, "asset", res.AssetHash.String())
	a.printf("%s\n", dir)
	return nil
}
