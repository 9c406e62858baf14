package service

import (
	"encoding/json"
	"fmt"

	"github.com/sakif/bite/internal/model"
)

// Starter content seeded into every new bite. The copy ships in pt-BR to
// match the product's audience.

const defaultIndexHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <div id="app">
    <h1>Bem-vindo ao %s</h1>
    <p>Edite este arquivo para começar!</p>
  </div>
  <script src="script.js"></script>
</body>
</html>`

const defaultStyleCSS = `* {
  margin: 0;
  padding: 0;
  box-sizing: border-box;
}

body {
  font-family: 'Inter', sans-serif;
  background: linear-gradient(135deg, #1A1A2E 0%, #16213E 100%);
  color: #F8F9FA;
  min-height: 100vh;
  display: flex;
  align-items: center;
  justify-content: center;
}

#app {
  text-align: center;
  padding: 2rem;
  background: rgba(46, 139, 87, 0.1);
  border-radius: 12px;
  backdrop-filter: blur(10px);
  border: 1px solid rgba(46, 139, 87, 0.3);
}

h1 {
  color: #2E8B57;
  margin-bottom: 1rem;
  font-size: 2.5rem;
}

p {
  color: #B0B0B0;
  font-size: 1.1rem;
}`

const defaultScriptJS = `console.log('Bite criado com sucesso!');

// Adicione seu código JavaScript aqui
document.addEventListener('DOMContentLoaded', () => {
  console.log('DOM carregado');
});`

const defaultReadmeMD = `# %s

%s

## Características

- Componente reutilizável
- Totalmente customizável
- Responsivo

## Como usar

1. Copie os arquivos
2. Inclua em seu projeto
3. Customize conforme necessário

## Licença

MIT`

// biteDescriptor is the shape written into bite.json. The editor later
// round-trips a "customization" object through this file as well.
type biteDescriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Framework   string   `json:"framework"`
	Tags        []string `json:"tags"`
}

// defaultFiles builds the five seed files of a new bite:
// index.html, style.css, script.js, README.md, and bite.json.
func defaultFiles(name, description, framework string, tags []string) ([]model.BiteFile, error) {
	readmeDescription := description
	if readmeDescription == "" {
		readmeDescription = "Descrição do seu componente"
	}
	if tags == nil {
		tags = []string{}
	}

	descriptor, err := json.MarshalIndent(biteDescriptor{
		Name:        name,
		Description: description,
		Version:     "1.0.0",
		Framework:   framework,
		Tags:        tags,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding bite.json: %w", err)
	}

	return []model.BiteFile{
		{Filename: "index.html", Content: fmt.Sprintf(defaultIndexHTML, name, name), FileType: "html"},
		{Filename: "style.css", Content: defaultStyleCSS, FileType: "css"},
		{Filename: "script.js", Content: defaultScriptJS, FileType: "js"},
		{Filename: "README.md", Content: fmt.Sprintf(defaultReadmeMD, name, readmeDescription), FileType: "md"},
		{Filename: "bite.json", Content: string(descriptor), FileType: "json"},
	}, nil
}
