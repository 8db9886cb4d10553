package i18n

var tables = map[Lang]map[string]string{
	PT: {
		"nav.dashboard":  "Dashboard",
		"nav.pricing":    "Planos",
		"nav.login":      "Entrar",
		"nav.logout":     "Sair",
		"nav.start_free": "Começar Grátis",

		"pricing.title":      "Escolha seu Plano",
		"pricing.monthly":    "Mensal",
		"pricing.annual":     "Anual",
		"pricing.discount":   "-10%",
		"pricing.per_month":  "/mês",
		"pricing.per_year":   "/ano",
		"plan.free.name":     "Free",
		"plan.free.feature1": "5 scans por mês",
		"plan.pro.name":      "Pro",
		"plan.pro.feature1":  "Scans ilimitados",
		"plan.pro.badge":     "Membro PRO",
		"plan.pro.cta":       "Assinar Agora",
		"dashboard.welcome":  "Bem-vindo",
		"dashboard.scan":     "Escanear",
		"dashboard.history":  "Histórico",
		"common.loading":     "Carregando...",
		"common.error":       "Erro",
		"common.success":     "Sucesso",
		"common.cancel":      "Cancelar",
		"common.confirm":     "Confirmar",

		"status.analyzing":  "Analisando",
		"status.failed":     "Falhou",
		"status.safe":       "Seguro",
		"status.warning":    "Atenção",
		"status.danger":     "Perigo",
		"status.processing": "Processando",

		"scan.started":                   "Análise de segurança iniciada! Aguarde a conclusão...",
		"scan.failed":                    "Erro ao realizar scan. Tente novamente.",
		"scan.notify.critical.one":       "Scan concluído: {count} vulnerabilidade crítica detectada!",
		"scan.notify.critical.other":     "Scan concluído: {count} vulnerabilidades críticas detectadas!",
		"scan.notify.critical.detail":    "Clique no relatório para ver os detalhes.",
		"scan.notify.warning.one":        "Scan concluído: {count} problema encontrado",
		"scan.notify.warning.other":      "Scan concluído: {count} problemas encontrados",
		"scan.notify.warning.detail":     "Verifique o relatório para mais informações.",
		"scan.notify.success":            "Scan concluído com sucesso!",
		"scan.notify.success.detail":     "Nenhuma vulnerabilidade detectada.",
		"scan.notify.desktop.title":      "Alerta de Segurança Crítico",
		"scan.notify.desktop.body.one":   "{count} vulnerabilidade crítica detectada! Verifique o relatório imediatamente.",
		"scan.notify.desktop.body.other": "{count} vulnerabilidades críticas detectadas! Verifique o relatório imediatamente.",

		"error.missing_target":   "Por favor, forneça uma URL ou arquivo para escanear",
		"error.invalid_file":     "Arquivo inválido",
		"error.invalid_url":      "URL inválida",
		"error.file_too_large":   "Arquivo muito grande. Tamanho máximo: {max}MB",
		"error.unsupported_file": "Tipo de arquivo não suportado. Use arquivos de código-fonte, configuração ou scripts.",
		"error.invalid_github":   "URL do GitHub inválida. Use o formato: https://github.com/usuario/repositorio",
		"error.github_pro":       "O scan de repositórios GitHub é exclusivo do plano PRO.",
		"error.quota":            "Limite de {limit} scans gratuitos por mês atingido. Faça upgrade para continuar.",
		"error.export_pro":       "A exportação de relatórios é exclusiva do plano PRO.",

		"redeem.success": "Código resgatado! PRO ativo até {date}.",
		"redeem.invalid": "Código inválido ou já utilizado.",
	},
	EN: {
		"nav.dashboard":  "Dashboard",
		"nav.pricing":    "Pricing",
		"nav.login":      "Login",
		"nav.logout":     "Logout",
		"nav.start_free": "Start Free",

		"pricing.title":      "Choose your Plan",
		"pricing.monthly":    "Monthly",
		"pricing.annual":     "Annual",
		"pricing.per_month":  "/mo",
		"pricing.per_year":   "/yr",
		"plan.free.feature1": "5 scans per month",
		"plan.pro.feature1":  "Unlimited scans",
		"plan.pro.badge":     "PRO Member",
		"plan.pro.cta":       "Subscribe Now",
		"dashboard.welcome":  "Welcome",
		"dashboard.scan":     "Scan",
		"dashboard.history":  "History",
		"common.loading":     "Loading...",
		"common.error":       "Error",
		"common.success":     "Success",
		"common.cancel":      "Cancel",
		"common.confirm":     "Confirm",

		"status.analyzing":  "Analyzing",
		"status.failed":     "Failed",
		"status.safe":       "Safe",
		"status.warning":    "Warning",
		"status.danger":     "Danger",
		"status.processing": "Processing",

		"scan.started":                   "Security analysis started! Wait for it to finish...",
		"scan.failed":                    "Scan failed. Please try again.",
		"scan.notify.critical.one":       "Scan finished: {count} critical vulnerability detected!",
		"scan.notify.critical.other":     "Scan finished: {count} critical vulnerabilities detected!",
		"scan.notify.critical.detail":    "Open the report to see the details.",
		"scan.notify.warning.one":        "Scan finished: {count} issue found",
		"scan.notify.warning.other":      "Scan finished: {count} issues found",
		"scan.notify.warning.detail":     "Check the report for more information.",
		"scan.notify.success":            "Scan finished successfully!",
		"scan.notify.success.detail":     "No vulnerabilities detected.",
		"scan.notify.desktop.title":      "Critical Security Alert",
		"scan.notify.desktop.body.one":   "{count} critical vulnerability detected! Check the report now.",
		"scan.notify.desktop.body.other": "{count} critical vulnerabilities detected! Check the report now.",

		"error.missing_target":   "Please provide a URL or file to scan",
		"error.invalid_file":     "Invalid file",
		"error.invalid_url":      "Invalid URL",
		"error.file_too_large":   "File too large. Maximum size: {max}MB",
		"error.unsupported_file": "Unsupported file type. Use source code, configuration or script files.",
		"error.invalid_github":   "Invalid GitHub URL. Use the format: https://github.com/user/repository",
		"error.github_pro":       "GitHub repository scanning is a PRO feature.",
		"error.quota":            "Free plan limit of {limit} scans per month reached. Upgrade to continue.",
		"error.export_pro":       "Report export is a PRO feature.",

		"redeem.success": "Code redeemed! PRO active until {date}.",
		"redeem.invalid": "Invalid or already used code.",
	},
	DE: {
		"nav.pricing":       "Preise",
		"nav.login":         "Anmelden",
		"nav.logout":        "Abmelden",
		"nav.start_free":    "Kostenlos starten",
		"pricing.monthly":   "Monatlich",
		"pricing.annual":    "Jährlich",
		"pricing.per_month": "/Monat",
		"pricing.per_year":  "/Jahr",
		"plan.pro.badge":    "PRO-Mitglied",
		"dashboard.welcome": "Willkommen",
		"dashboard.scan":    "Scannen",
		"dashboard.history": "Historie",
		"common.loading":    "Lädt...",
		"common.error":      "Fehler",
		"common.success":    "Erfolg",
		"common.cancel":     "Abbrechen",
		"common.confirm":    "Bestätigen",
		"status.analyzing":  "Wird analysiert",
		"status.failed":     "Fehlgeschlagen",
		"status.safe":       "Sicher",
		"status.warning":    "Warnung",
		"status.danger":     "Gefahr",
		"status.processing": "In Bearbeitung",

		"scan.notify.critical.one":   "Scan abgeschlossen: {count} kritische Schwachstelle gefunden!",
		"scan.notify.critical.other": "Scan abgeschlossen: {count} kritische Schwachstellen gefunden!",
		"scan.notify.warning.one":    "Scan abgeschlossen: {count} Problem gefunden",
		"scan.notify.warning.other":  "Scan abgeschlossen: {count} Probleme gefunden",
		"scan.notify.success":        "Scan erfolgreich abgeschlossen!",
		"scan.notify.desktop.title":  "Kritische Sicherheitswarnung",
	},
	FR: {
		"nav.pricing":       "Tarifs",
		"nav.login":         "Connexion",
		"nav.logout":        "Déconnexion",
		"nav.start_free":    "Commencer gratuitement",
		"pricing.monthly":   "Mensuel",
		"pricing.annual":    "Annuel",
		"pricing.per_month": "/mois",
		"pricing.per_year":  "/an",
		"plan.pro.badge":    "Membre PRO",
		"dashboard.welcome": "Bienvenue",
		"dashboard.scan":    "Scanner",
		"dashboard.history": "Historique",
		"common.loading":    "Chargement...",
		"common.error":      "Erreur",
		"common.success":    "Succès",
		"common.cancel":     "Annuler",
		"common.confirm":    "Confirmer",
		"status.analyzing":  "Analyse en cours",
		"status.failed":     "Échec",
		"status.safe":       "Sûr",
		"status.warning":    "Attention",
		"status.danger":     "Danger",
		"status.processing": "Traitement",

		"scan.notify.critical.one":   "Scan terminé : {count} vulnérabilité critique détectée !",
		"scan.notify.critical.other": "Scan terminé : {count} vulnérabilités critiques détectées !",
		"scan.notify.warning.one":    "Scan terminé : {count} problème trouvé",
		"scan.notify.warning.other":  "Scan terminé : {count} problèmes trouvés",
		"scan.notify.success":        "Scan terminé avec succès !",
		"scan.notify.desktop.title":  "Alerte de sécurité critique",
	},
}
