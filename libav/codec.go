package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
)

type Codec struct {
	codec        *astiav.Codec
	codecContext *astiav.CodecContext
	closer       astikit.Closer
}

func (c *Codec) Close() error {
	return c.closer.Close()
}

// newDictionary converts options into a library dictionary; the result
// is nil when there are no options.
func newDictionary(
	ctx context.Context,
	options ffcodecs.DictionaryItems,
	closer *astikit.Closer,
) (*astiav.Dictionary, error) {
	if len(options) == 0 {
		return nil, nil
	}

	dict := astiav.NewDictionary()
	closer.Add(dict.Free)
	for _, opt := range options {
		logger.Debugf(ctx, "dictionary['%s'] = '%s'", opt.Key, opt.Value)
		if err := dict.Set(opt.Key, opt.Value, 0); err != nil {
			return nil, fmt.Errorf("unable to set option '%s': %w", opt.Key, err)
		}
	}
	return dict, nil
}

// newDecoderCodec opens a decoder either by name (with extradata and
// options) or, if codecParameters is set, from a demuxed stream.
func newDecoderCodec(
	ctx context.Context,
	codecName string,
	codecParameters *astiav.CodecParameters,
	extraData []byte,
	options ffcodecs.DictionaryItems,
) (_ret *Codec, _err error) {
	c := &Codec{}
	defer func() {
		if _err != nil {
			_ = c.Close()
		}
	}()

	if codecName != "" {
		c.codec = astiav.FindDecoderByName(codecName)
	} else if codecParameters != nil {
		c.codec = astiav.FindDecoder(codecParameters.CodecID())
	}
	if c.codec == nil {
		return nil, fmt.Errorf("unable to find a decoder using name '%s'", codecName)
	}

	c.codecContext = astiav.AllocCodecContext(c.codec)
	if c.codecContext == nil {
		return nil, fmt.Errorf("unable to allocate codec context")
	}
	c.closer.Add(c.codecContext.Free)

	if codecParameters != nil {
		if err := codecParameters.ToCodecContext(c.codecContext); err != nil {
			return nil, fmt.Errorf("codecParameters.ToCodecContext(...) returned error: %w", err)
		}
	}

	if len(extraData) > 0 {
		if err := c.codecContext.SetExtraData(extraData); err != nil {
			return nil, fmt.Errorf("unable to set extradata: %w", err)
		}
	}

	dict, err := newDictionary(ctx, options, &c.closer)
	if err != nil {
		return nil, err
	}

	if err := c.codecContext.Open(c.codec, dict); err != nil {
		return nil, fmt.Errorf("unable to open codec context: %w", err)
	}

	return c, nil
}
