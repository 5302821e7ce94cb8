package common

import (
	"context"
	"fmt"

	"cvforge/internal/errors"
)

// CreateInputFunc builds an operation's input from the extracted file texts.
type CreateInputFunc[Input any] func(texts []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc runs the command's work.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// FileCommand carries what every file-driven command shares.
type FileCommand struct {
	Files  *FileProcessor
	Output *OutputHandler
	Config CommandConfig
	Logger *errors.Logger
}

// RunFileCommand reads and extracts each file in args, runs the operation on
// the resulting input and writes the formatted result.
func RunFileCommand[Input, Output any](
	ctx context.Context,
	fc FileCommand,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	texts := make([]string, len(args))
	for i, filename := range args {
		text, err := fc.Files.ReadText(filename)
		if err != nil {
			return err
		}
		texts[i] = text
	}

	input, err := createInput(texts)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, fc.Config)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return fc.Output.HandleOutput(result, fc.Config)
}
