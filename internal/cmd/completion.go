package cmd

import (
	"fmt"
	"io"
	"os"
)

type CompletionCmd struct {
	Shell string `arg:"" help:"Shell type: bash, zsh, or fish"`
}

func (c *CompletionCmd) Run() error {
	return writeCompletion(os.Stdout, c.Shell)
}

func writeCompletion(w io.Writer, shell string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion
	case "zsh":
		script = zshCompletion
	case "fish":
		script = fishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

const bashCompletion = `# bash completion for rigidreg

_rigidreg_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Main commands
    if [[ ${COMP_CWORD} -eq 1 ]]; then
        opts="compose decompose elastix session apply config version completion"
        COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
        return 0
    fi

    case "${prev}" in
        -o|--output)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        -u|--unit)
            COMPREPLY=( $(compgen -W "degrees radians" -- ${cur}) )
            return 0
            ;;
        --precision)
            COMPREPLY=( $(compgen -W "default high" -- ${cur}) )
            return 0
            ;;
        --validation)
            COMPREPLY=( $(compgen -W "strict orthonormalize passthrough" -- ${cur}) )
            return 0
            ;;
    esac

    case "${COMP_WORDS[1]}" in
        compose)
            opts="--center -r --rotation -t --translation -u --unit -o --output --precision -h --help"
            COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            ;;
        decompose)
            if [[ ${cur} == -* ]]; then
                COMPREPLY=( $(compgen -W "--center -u --unit --yaml -h --help" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -- ${cur}) )
            fi
            ;;
        elastix)
            if [[ ${cur} == -* ]]; then
                COMPREPLY=( $(compgen -W "-o --output --precision -h --help" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -X '!*.txt' -- ${cur}) )
            fi
            ;;
        session|config)
            if [[ ${cur} == -* ]]; then
                COMPREPLY=( $(compgen -W "-q --quiet --dry-run -h --help" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -X '!*.@(yaml|yml)' -- ${cur}) )
            fi
            ;;
        apply)
            if [[ ${cur} == -* ]]; then
                COMPREPLY=( $(compgen -W "-o --output --validation -h --help" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -- ${cur}) )
            fi
            ;;
        completion)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
    return 0
}

complete -F _rigidreg_completions rigidreg
`

const zshCompletion = `#compdef rigidreg

_rigidreg() {
    local -a commands
    commands=(
        'compose:Compose a matrix from rotation center, angles and translation'
        'decompose:Decompose a matrix file into angles and translation'
        'elastix:Convert an elastix EulerTransform parameter file into a matrix'
        'session:Replay a scripted registration session'
        'apply:Apply a matrix file to an STL mesh'
        'config:Validate a session file and show its contents'
        'version:Show version information'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                compose)
                    _arguments \
                        '--center[Rotation center x,y,z]:center:' \
                        '(-r --rotation)'{-r,--rotation}'[Rotation angles x,y,z]:angles:' \
                        '(-t --translation)'{-t,--translation}'[Translation x,y,z]:translation:' \
                        '(-u --unit)'{-u,--unit}'[Angle unit]:unit:(degrees radians)' \
                        '(-o --output)'{-o,--output}'[Output file]:output file:_files' \
                        '--precision[Decimals]:precision:(default high)'
                    ;;
                decompose)
                    _arguments \
                        '--center[Rotation center x,y,z]:center:' \
                        '(-u --unit)'{-u,--unit}'[Angle unit]:unit:(degrees radians)' \
                        '--yaml[Print as YAML]' \
                        '*:matrix file:_files'
                    ;;
                elastix)
                    _arguments \
                        '(-o --output)'{-o,--output}'[Output file]:output file:_files' \
                        '--precision[Decimals]:precision:(default high)' \
                        '*:parameter file:_files -g "*.txt"'
                    ;;
                session)
                    _arguments \
                        '(-q --quiet)'{-q,--quiet}'[Do not print every redraw]' \
                        '--dry-run[Only list the steps]' \
                        '*:session file:_files -g "*.{yaml,yml}"'
                    ;;
                config)
                    _arguments '*:session file:_files -g "*.{yaml,yml}"'
                    ;;
                apply)
                    _arguments \
                        '(-o --output)'{-o,--output}'[Output STL]:output file:_files -g "*.stl"' \
                        '--validation[Non-rigid handling]:policy:(strict orthonormalize passthrough)' \
                        '*:files:_files'
                    ;;
                completion)
                    _describe 'shell' '(bash zsh fish)'
                    ;;
                version)
                    _arguments '(-h --help)'{-h,--help}'[Show help]'
                    ;;
            esac
            ;;
    esac
}

_rigidreg
`

const fishCompletion = `# fish completion for rigidreg

# Main commands
complete -c rigidreg -f -n "__fish_use_subcommand" -a "compose" -d "Compose a matrix from rotation center, angles and translation"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "decompose" -d "Decompose a matrix file into angles and translation"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "elastix" -d "Convert an elastix parameter file into a matrix"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "session" -d "Replay a scripted registration session"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "apply" -d "Apply a matrix file to an STL mesh"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "config" -d "Validate a session file"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "version" -d "Show version information"
complete -c rigidreg -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

# shared options
complete -c rigidreg -f -n "__fish_seen_subcommand_from compose decompose" -s u -l unit -d "Angle unit" -r -a "degrees radians"
complete -c rigidreg -f -n "__fish_seen_subcommand_from compose decompose" -l center -d "Rotation center x,y,z" -r
complete -c rigidreg -n "__fish_seen_subcommand_from compose elastix apply" -s o -l output -d "Output file" -r
complete -c rigidreg -f -n "__fish_seen_subcommand_from compose elastix" -l precision -d "Decimals" -r -a "default high"

# compose
complete -c rigidreg -f -n "__fish_seen_subcommand_from compose" -s r -l rotation -d "Rotation angles x,y,z" -r
complete -c rigidreg -f -n "__fish_seen_subcommand_from compose" -s t -l translation -d "Translation x,y,z" -r

# decompose
complete -c rigidreg -f -n "__fish_seen_subcommand_from decompose" -l yaml -d "Print as YAML"

# session
complete -c rigidreg -f -n "__fish_seen_subcommand_from session" -s q -l quiet -d "Do not print every redraw"
complete -c rigidreg -f -n "__fish_seen_subcommand_from session" -l dry-run -d "Only list the steps"
complete -c rigidreg -n "__fish_seen_subcommand_from session config" -a "(__fish_complete_suffix .yaml)" -d "Session file"

# apply
complete -c rigidreg -f -n "__fish_seen_subcommand_from apply" -l validation -d "Non-rigid handling" -r -a "strict orthonormalize passthrough"
complete -c rigidreg -n "__fish_seen_subcommand_from apply" -a "(__fish_complete_suffix .stl)" -d "STL mesh"

# completion command options
complete -c rigidreg -f -n "__fish_seen_subcommand_from completion" -a "bash" -d "Generate bash completion"
complete -c rigidreg -f -n "__fish_seen_subcommand_from completion" -a "zsh" -d "Generate zsh completion"
complete -c rigidreg -f -n "__fish_seen_subcommand_from completion" -a "fish" -d "Generate fish completion"
`

func (c *CompletionCmd) Help() string {
	return `
Generate shell completion scripts for rigidreg.

Examples:
  # Bash
  rigidreg completion bash > ~/.local/share/bash-completion/completions/rigidreg

  # Zsh
  rigidreg completion zsh > ~/.zsh/completion/_rigidreg
  # or add to .zshrc:
  autoload -U compinit && compinit

  # Fish
  rigidreg completion fish > ~/.config/fish/completions/rigidreg.fish
`
}
