package analysis

import (
	"fmt"
	"path"
	"strings"

	"github.com/NikhilSetiya/securex/pkg/types"
)

const systemPrompt = `You are an expert cybersecurity analyst specializing in vulnerability detection across all programming languages and file types. Analyze the provided target for security vulnerabilities following OWASP Top 10 and industry best practices.

SUPPORTED LANGUAGES AND FILES:
- JavaScript/TypeScript (Node.js, React, Vue, Angular)
- Python (Django, Flask, FastAPI)
- PHP (Laravel, WordPress, Symfony)
- Java (Spring, Jakarta EE)
- C#/.NET
- Go, Rust, C/C++
- Ruby (Rails)
- Shell scripts (bash, PowerShell)
- Configuration files (YAML, JSON, XML, TOML, .env)
- SQL scripts
- Docker, Kubernetes configs

Focus on detecting:
1. SQL Injection vulnerabilities (all database types)
2. Cross-Site Scripting (XSS): reflected, stored and DOM-based
3. Cross-Site Request Forgery (CSRF)
4. Insecure Authentication & Session Management
5. Sensitive Data Exposure (API keys, passwords, tokens)
6. XML External Entities (XXE)
7. Broken Access Control
8. Security Misconfiguration
9. Using Components with Known Vulnerabilities
10. Insufficient Logging & Monitoring
11. Command Injection
12. Path Traversal
13. Insecure Deserialization
14. Server-Side Request Forgery (SSRF)
15. Insecure Direct Object References
16. Missing Security Headers
17. Weak Cryptography
18. Race Conditions
19. Memory Safety Issues (for C/C++/Rust)
20. Type Confusion

LANGUAGE-SPECIFIC CHECKS:
- PHP: include/require vulnerabilities, eval(), unserialize()
- JavaScript/TypeScript: prototype pollution, dangerouslySetInnerHTML
- Python: pickle, eval(), exec(), os.system()
- Java: unsafe reflection, XML parsing
- C/C++: buffer overflows, use-after-free, format strings
- SQL: injection, privilege escalation
- Shell: command injection, unsafe variable expansion

For each vulnerability found, provide its type, severity (critical, high, medium, low), a detailed description, the specific location or code snippet and a recommended fix with a code example in the same language.

Return your analysis as JSON with this structure:
{
  "vulnerabilities": [
    {
      "type": "string",
      "severity": "critical|high|medium|low",
      "title": "string",
      "description": "string",
      "location": "string",
      "recommendation": "string",
      "code_example": "string"
    }
  ],
  "summary": {
    "total": number,
    "critical": number,
    "high": number,
    "medium": number,
    "low": number
  },
  "overall_severity": "safe|warning|danger"
}`

// CheckCategories are the vulnerability classes every analysis looks for.
// They are shown to the user before a scan is confirmed.
var CheckCategories = []string{
	"SQL Injection",
	"Cross-Site Scripting (XSS)",
	"Cross-Site Request Forgery (CSRF)",
	"Authentication & Session Management",
	"Sensitive Data Exposure",
	"XML External Entities (XXE)",
	"Broken Access Control",
	"Security Misconfiguration",
	"Components with Known Vulnerabilities",
	"Command Injection",
	"Path Traversal",
	"Insecure Deserialization",
	"Server-Side Request Forgery (SSRF)",
	"Weak Cryptography",
}

var languages = map[string]string{
	"js": "JavaScript", "jsx": "JavaScript (React)", "ts": "TypeScript", "tsx": "TypeScript (React)",
	"py": "Python", "php": "PHP", "java": "Java", "go": "Go", "rs": "Rust",
	"c": "C", "cpp": "C++", "cs": "C#", "rb": "Ruby", "kt": "Kotlin", "swift": "Swift",
	"sh": "Shell Script", "bash": "Bash Script", "ps1": "PowerShell",
	"sql": "SQL", "yml": "YAML Config", "yaml": "YAML Config", "json": "JSON",
	"xml": "XML", "toml": "TOML", "ini": "INI Config", "env": "Environment Config",
	"dockerfile": "Docker", "tf": "Terraform",
}

// LanguageFor names the language of a file target from its extension.
// A bare Dockerfile counts as Docker.
func LanguageFor(target string) string {
	base := strings.ToLower(path.Base(strings.TrimSpace(target)))
	if base == "dockerfile" {
		return languages["dockerfile"]
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return "source code"
}

// UserPrompt builds the per-scan instruction. Repository metadata, when
// available, is appended so the model knows the stack it is auditing.
func UserPrompt(scanType types.ScanType, target string, repo *RepoMetadata) string {
	switch scanType {
	case types.ScanTypeURL:
		return fmt.Sprintf("Analyze this URL for security vulnerabilities: %s\n\n"+
			"Perform a comprehensive security scan checking for common web vulnerabilities, insecure configurations, "+
			"potential attack vectors, exposed sensitive information, and API security issues.", target)
	case types.ScanTypeGitHub:
		prompt := fmt.Sprintf("Analyze this GitHub repository for security vulnerabilities: %s\n\n"+
			"Perform a comprehensive security audit checking for exposed secrets, insecure dependencies, vulnerable code patterns, "+
			"misconfigurations, and security best practices violations across all files in the repository.", target)
		if repo != nil {
			prompt += "\n\n" + repo.Describe()
		}
		return prompt
	default:
		lang := LanguageFor(target)
		return fmt.Sprintf("Analyze this %[1]s file for security vulnerabilities: %[2]s\n\n"+
			"Perform a deep code security analysis specific to %[1]s, checking for:\n"+
			"- Language-specific vulnerabilities\n"+
			"- Insecure coding practices\n"+
			"- Dangerous function usage\n"+
			"- Input validation issues\n"+
			"- Authentication/authorization flaws\n"+
			"- Data exposure risks\n"+
			"- Vulnerable dependencies\n"+
			"- Configuration errors\n"+
			"- Cryptographic weaknesses\n\n"+
			"Provide detailed, actionable findings with code examples in %[1]s.", lang, target)
	}
}
